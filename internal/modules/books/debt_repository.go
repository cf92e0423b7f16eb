package books

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// DebtRepository handles debt persistence. Debts are consumed read-only
// by the credit score estimator.
type DebtRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewDebtRepository creates a new debt repository
func NewDebtRepository(db *sql.DB, log zerolog.Logger) *DebtRepository {
	return &DebtRepository{
		db:  db,
		log: log.With().Str("repo", "debts").Logger(),
	}
}

// Create inserts a new debt
func (r *DebtRepository) Create(d domain.Debt) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO debts (id, user_id, type, balance, interest_rate, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Type, d.Balance, d.InterestRate, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt %s: %w", d.ID, err)
	}
	return nil
}

// ListByUser returns all debts for a user
func (r *DebtRepository) ListByUser(userID string) ([]domain.Debt, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, type, balance, interest_rate, created_at FROM debts WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	var debts []domain.Debt
	for rows.Next() {
		var d domain.Debt
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.UserID, &d.Type, &d.Balance, &d.InterestRate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan debt row: %w", err)
		}
		d.CreatedAt = time.Unix(createdAt, 0).UTC()
		debts = append(debts, d)
	}
	return debts, rows.Err()
}
