// Package books provides repositories for the raw financial inputs:
// business profiles, transactions, categories, debts and recurring charges.
// The ledger derivation engine and the credit score estimator consume these
// read-only; write paths exist for ingestion and seeding.
package books

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// TransactionRepository handles transaction persistence in books.db
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Create inserts a new transaction. Transactions are immutable once
// recorded; there is no update path.
func (r *TransactionRepository) Create(tx domain.Transaction) error {
	if err := domain.ValidateTransaction(tx); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (
			id, user_id, business_profile_id, date, amount, description, category, type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(
		query,
		tx.ID,
		tx.UserID,
		tx.ProfileID,
		tx.Date.Unix(),
		tx.Amount,
		tx.Description,
		tx.Category,
		string(tx.Type),
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
	}

	return nil
}

// ListByPartition returns all transactions for a partition ordered by
// date ascending. Rows failing validation (zero amounts, sign/type
// mismatches) are skipped with a warning, not returned.
func (r *TransactionRepository) ListByPartition(p domain.Partition) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, business_profile_id, date, amount, description, category, type, created_at
		FROM transactions
		WHERE user_id = ? AND business_profile_id = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.Query(query, p.UserID, p.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return r.scanValid(rows)
}

// ListByUser returns all transactions for a user across profiles,
// ordered by date ascending.
func (r *TransactionRepository) ListByUser(userID string) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, business_profile_id, date, amount, description, category, type, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return r.scanValid(rows)
}

// DistinctUserIDs returns all user ids that own at least one transaction
func (r *TransactionRepository) DistinctUserIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TransactionRepository) scanValid(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var date, createdAt int64
		var typ string

		err := rows.Scan(&tx.ID, &tx.UserID, &tx.ProfileID, &date, &tx.Amount,
			&tx.Description, &tx.Category, &typ, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		tx.Date = time.Unix(date, 0).UTC()
		tx.CreatedAt = time.Unix(createdAt, 0).UTC()
		tx.Type = domain.TransactionType(typ)

		// Upstream data anomalies are skipped with a warning
		if err := domain.ValidateTransaction(tx); err != nil {
			r.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Skipping invalid transaction")
			continue
		}

		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
