// Package reconciliation rolls a partition's transactions up into
// monthly cash summaries with a continuous running balance.
package reconciliation

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// Repository handles reconciliation persistence in books.db.
// Rows are keyed by (user, profile, year, month): re-deriving a month
// updates the existing row instead of inserting a second one.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new reconciliation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "reconciliation").Logger(),
	}
}

// Upsert inserts the month's reconciliation or updates it in place.
// Returns true when a new row was created.
func (r *Repository) Upsert(rec domain.Reconciliation) (bool, error) {
	now := time.Now().UTC().Unix()

	var existingID int64
	err := r.db.QueryRow(
		`SELECT id FROM reconciliations
		 WHERE user_id = ? AND business_profile_id = ? AND year = ? AND month = ?`,
		rec.UserID, rec.ProfileID, rec.Year, rec.Month,
	).Scan(&existingID)

	switch {
	case err == sql.ErrNoRows:
		_, err := r.db.Exec(
			`INSERT INTO reconciliations (user_id, business_profile_id, year, month, opening_balance, closing_balance, bank_balance, difference, status, notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.UserID, rec.ProfileID, rec.Year, rec.Month,
			rec.OpeningBalance, rec.ClosingBalance, rec.BankBalance, rec.Difference,
			rec.Status, rec.Notes, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert reconciliation %d-%02d: %w", rec.Year, rec.Month, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up reconciliation %d-%02d: %w", rec.Year, rec.Month, err)
	}

	_, err = r.db.Exec(
		`UPDATE reconciliations
		 SET opening_balance = ?, closing_balance = ?, bank_balance = ?, difference = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		rec.OpeningBalance, rec.ClosingBalance, rec.BankBalance, rec.Difference,
		rec.Status, rec.Notes, now, existingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update reconciliation %d-%02d: %w", rec.Year, rec.Month, err)
	}
	return false, nil
}

// ListByPartition returns a partition's reconciliations in
// chronological order
func (r *Repository) ListByPartition(p domain.Partition) ([]domain.Reconciliation, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, business_profile_id, year, month, opening_balance, closing_balance, bank_balance, difference, status, notes, created_at, updated_at
		 FROM reconciliations
		 WHERE user_id = ? AND business_profile_id = ?
		 ORDER BY year ASC, month ASC`,
		p.UserID, p.ProfileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Reconciliation
	for rows.Next() {
		var rec domain.Reconciliation
		var createdAt, updatedAt int64
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.ProfileID, &rec.Year, &rec.Month,
			&rec.OpeningBalance, &rec.ClosingBalance, &rec.BankBalance, &rec.Difference,
			&rec.Status, &rec.Notes, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
