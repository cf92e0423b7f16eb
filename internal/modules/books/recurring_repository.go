package books

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// RecurringChargeRepository handles recurring charge persistence.
// Recurring charges feed the payment history and credit mix factors of
// the credit model.
type RecurringChargeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRecurringChargeRepository creates a new recurring charge repository
func NewRecurringChargeRepository(db *sql.DB, log zerolog.Logger) *RecurringChargeRepository {
	return &RecurringChargeRepository{
		db:  db,
		log: log.With().Str("repo", "recurring_charges").Logger(),
	}
}

// Create inserts a new recurring charge
func (r *RecurringChargeRepository) Create(c domain.RecurringCharge) error {
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var lastPaid, nextDue interface{}
	if c.LastPaidDate != nil {
		lastPaid = c.LastPaidDate.Unix()
	}
	if c.NextDueDate != nil {
		nextDue = c.NextDueDate.Unix()
	}

	_, err := r.db.Exec(
		`INSERT INTO recurring_charges (id, user_id, name, status, last_paid_date, next_due_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Status), lastPaid, nextDue, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurring charge %s: %w", c.ID, err)
	}
	return nil
}

// ListByUser returns all recurring charges for a user
func (r *RecurringChargeRepository) ListByUser(userID string) ([]domain.RecurringCharge, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, name, status, last_paid_date, next_due_date, created_at
		 FROM recurring_charges WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring charges: %w", err)
	}
	defer rows.Close()

	var charges []domain.RecurringCharge
	for rows.Next() {
		var c domain.RecurringCharge
		var status string
		var lastPaid, nextDue sql.NullInt64
		var createdAt int64

		err := rows.Scan(&c.ID, &c.UserID, &c.Name, &status, &lastPaid, &nextDue, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring charge row: %w", err)
		}

		c.Status = domain.RecurringStatus(status)
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		if lastPaid.Valid {
			t := time.Unix(lastPaid.Int64, 0).UTC()
			c.LastPaidDate = &t
		}
		if nextDue.Valid {
			t := time.Unix(nextDue.Int64, 0).UTC()
			c.NextDueDate = &t
		}

		charges = append(charges, c)
	}
	return charges, rows.Err()
}
