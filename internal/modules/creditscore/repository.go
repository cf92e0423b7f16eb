package creditscore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SavedScore is one persisted point-in-time snapshot of a computed
// score. History is append-only; snapshots are never amended.
type SavedScore struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Result
}

// Repository persists credit score snapshots in books.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new credit score repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "credit_scores").Logger(),
	}
}

// Save appends a snapshot of the result to the user's score history
func (r *Repository) Save(userID string, result Result) (*SavedScore, error) {
	factorsJSON, err := json.Marshal(result.Factors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal factors: %w", err)
	}

	saved := SavedScore{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Result:    result,
	}

	_, err = r.db.Exec(
		`INSERT INTO credit_scores (id, user_id, score, rating, factors_json, total_debt, credit_utilization, accounts, inquiries, avg_account_age_months, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		saved.ID, saved.UserID, result.Score, result.Rating, string(factorsJSON),
		result.TotalDebt, result.CreditUtilization, result.Accounts,
		result.Inquiries, result.AvgAccountAge, saved.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert credit score snapshot: %w", err)
	}

	r.log.Debug().Str("user_id", userID).Int("score", result.Score).Msg("Credit score snapshot saved")
	return &saved, nil
}

// History returns the user's snapshots, newest first
func (r *Repository) History(userID string, limit int) ([]SavedScore, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, user_id, score, rating, factors_json, total_debt, credit_utilization, accounts, inquiries, avg_account_age_months, created_at
		 FROM credit_scores
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit score history: %w", err)
	}
	defer rows.Close()

	var history []SavedScore
	for rows.Next() {
		var s SavedScore
		var factorsJSON string
		var createdAt int64
		err := rows.Scan(&s.ID, &s.UserID, &s.Score, &s.Rating, &factorsJSON,
			&s.TotalDebt, &s.CreditUtilization, &s.Accounts, &s.Inquiries,
			&s.AvgAccountAge, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit score row: %w", err)
		}
		if err := json.Unmarshal([]byte(factorsJSON), &s.Factors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal factors for snapshot %s: %w", s.ID, err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		s.ComputedAt = s.CreatedAt
		history = append(history, s)
	}

	return history, rows.Err()
}
