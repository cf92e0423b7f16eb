// Package journal converts transactions into balanced double-entry
// journal entries against the partition's checking account.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/database"
	"github.com/quillbooks/quill/internal/domain"
)

// ErrUnbalanced is returned when an entry violates the double-entry
// invariant. This is a programmer error, never coerced or skipped.
var ErrUnbalanced = errors.New("journal entry debits do not equal credits")

// Repository handles journal entry persistence in books.db.
// Entry numbers come from a per-user persisted sequence so they stay
// monotonic across profiles, runs and process restarts.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new journal repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "journal").Logger(),
	}
}

// Create persists an entry and its lines atomically. The entry number
// is allocated from the user's sequence inside the same transaction,
// so failed inserts never burn a number. Returns the stored entry.
func (r *Repository) Create(entry domain.JournalEntry) (*domain.JournalEntry, error) {
	if !entry.Balanced() {
		return nil, fmt.Errorf("entry for reference %s: %w", entry.Reference, ErrUnbalanced)
	}
	if len(entry.Lines) != 2 {
		return nil, fmt.Errorf("entry for reference %s: expected 2 lines, got %d", entry.Reference, len(entry.Lines))
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		number, err := nextEntryNumber(tx, entry.UserID)
		if err != nil {
			return err
		}
		entry.EntryNumber = number
		entry.CreatedAt = time.Now().UTC()

		result, err := tx.Exec(
			`INSERT INTO journal_entries (user_id, business_profile_id, entry_number, date, description, reference, total_debit, total_credit, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.UserID, entry.ProfileID, entry.EntryNumber, entry.Date.Unix(),
			entry.Description, entry.Reference, entry.TotalDebit, entry.TotalCredit,
			entry.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert journal entry: %w", err)
		}

		entryID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get journal entry id: %w", err)
		}
		entry.ID = entryID

		for i := range entry.Lines {
			line := &entry.Lines[i]
			lineResult, err := tx.Exec(
				`INSERT INTO journal_entry_lines (entry_id, account_id, description, debit_amount, credit_amount)
				 VALUES (?, ?, ?, ?, ?)`,
				entryID, line.AccountID, line.Description, line.DebitAmount, line.CreditAmount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert journal line: %w", err)
			}
			if line.ID, err = lineResult.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get journal line id: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// ExistsByReference reports whether the user already has an entry for
// the source transaction. This is the duplicate guard that makes
// derivation re-runs safe.
func (r *Repository) ExistsByReference(userID, reference string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		`SELECT 1 FROM journal_entries WHERE user_id = ? AND reference = ? LIMIT 1`,
		userID, reference,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check reference %s: %w", reference, err)
	}
	return true, nil
}

// ListByPartition returns a partition's entries with their lines,
// ordered by entry number
func (r *Repository) ListByPartition(p domain.Partition) ([]domain.JournalEntry, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, business_profile_id, entry_number, date, description, reference, total_debit, total_credit, created_at
		 FROM journal_entries
		 WHERE user_id = ? AND business_profile_id = ?
		 ORDER BY entry_number ASC`,
		p.UserID, p.ProfileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var date, createdAt int64
		err := rows.Scan(&e.ID, &e.UserID, &e.ProfileID, &e.EntryNumber, &date,
			&e.Description, &e.Reference, &e.TotalDebit, &e.TotalCredit, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		e.Date = time.Unix(date, 0).UTC()
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		lines, err := r.linesForEntry(entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}

	return entries, nil
}

func (r *Repository) linesForEntry(entryID int64) ([]domain.JournalLine, error) {
	rows, err := r.db.Query(
		`SELECT id, account_id, description, debit_amount, credit_amount
		 FROM journal_entry_lines WHERE entry_id = ? ORDER BY id ASC`,
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(&l.ID, &l.AccountID, &l.Description, &l.DebitAmount, &l.CreditAmount); err != nil {
			return nil, fmt.Errorf("failed to scan journal line row: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// nextEntryNumber takes the next value from the user's entry sequence.
// Runs inside the entry's insert transaction.
func nextEntryNumber(tx *sql.Tx, userID string) (string, error) {
	var next int64
	err := tx.QueryRow(`SELECT next_value FROM entry_sequences WHERE user_id = ?`, userID).Scan(&next)
	if err == sql.ErrNoRows {
		next = 1
		if _, err := tx.Exec(`INSERT INTO entry_sequences (user_id, next_value) VALUES (?, ?)`, userID, next+1); err != nil {
			return "", fmt.Errorf("failed to initialize entry sequence: %w", err)
		}
		return formatEntryNumber(next), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read entry sequence: %w", err)
	}

	if _, err := tx.Exec(`UPDATE entry_sequences SET next_value = ? WHERE user_id = ?`, next+1, userID); err != nil {
		return "", fmt.Errorf("failed to advance entry sequence: %w", err)
	}
	return formatEntryNumber(next), nil
}

func formatEntryNumber(n int64) string {
	return fmt.Sprintf("JE-%06d", n)
}
