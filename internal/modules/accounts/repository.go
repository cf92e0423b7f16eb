package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// Repository handles chart-of-accounts persistence in books.db.
// Accounts are keyed by (user_id, code); re-derivation upserts instead
// of duplicating.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new chart-of-accounts repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// Upsert inserts an account or refreshes its name/type/description when
// the (user, code) pair already exists. Returns whether a new row was
// created.
func (r *Repository) Upsert(a domain.Account) (created bool, err error) {
	var existingID int64
	err = r.db.QueryRow(
		`SELECT id FROM chart_of_accounts WHERE user_id = ? AND code = ?`,
		a.UserID, a.Code,
	).Scan(&existingID)

	now := time.Now().Unix()

	if err == sql.ErrNoRows {
		_, insertErr := r.db.Exec(
			`INSERT INTO chart_of_accounts (user_id, business_profile_id, code, name, type, description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.UserID, a.ProfileID, a.Code, a.Name, string(a.Type), a.Description, now, now,
		)
		if insertErr != nil {
			return false, fmt.Errorf("failed to insert account %s: %w", a.Code, insertErr)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up account %s: %w", a.Code, err)
	}

	_, err = r.db.Exec(
		`UPDATE chart_of_accounts SET name = ?, type = ?, description = ?, updated_at = ? WHERE id = ?`,
		a.Name, string(a.Type), a.Description, now, existingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update account %s: %w", a.Code, err)
	}
	return false, nil
}

// FindByName returns the partition's account with the given name, or
// nil when absent
func (r *Repository) FindByName(p domain.Partition, name string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, business_profile_id, code, name, type, description, created_at, updated_at
		FROM chart_of_accounts
		WHERE user_id = ? AND business_profile_id = ? AND name = ?
	`
	return r.findOne(query, p.UserID, p.ProfileID, name)
}

// FindByCode returns the user's account with the given code, or nil
// when absent
func (r *Repository) FindByCode(userID, code string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, business_profile_id, code, name, type, description, created_at, updated_at
		FROM chart_of_accounts
		WHERE user_id = ? AND code = ?
	`
	return r.findOne(query, userID, code)
}

// ListByPartition returns all accounts in a partition ordered by code
func (r *Repository) ListByPartition(p domain.Partition) ([]domain.Account, error) {
	query := `
		SELECT id, user_id, business_profile_id, code, name, type, description, created_at, updated_at
		FROM chart_of_accounts
		WHERE user_id = ? AND business_profile_id = ?
		ORDER BY code ASC
	`

	rows, err := r.db.Query(query, p.UserID, p.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *Repository) findOne(query string, args ...interface{}) (*domain.Account, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	a, err := scanAccount(rows)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var a domain.Account
	var typ string
	var createdAt, updatedAt int64

	err := row.Scan(&a.ID, &a.UserID, &a.ProfileID, &a.Code, &a.Name, &typ,
		&a.Description, &createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to scan account row: %w", err)
	}

	a.Type = domain.AccountType(typ)
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	a.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return a, nil
}
