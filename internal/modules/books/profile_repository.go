package books

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// Profile is a ledger partition owner: one user can hold several
// personal or business profiles, each with its own books.
type Profile struct {
	CreatedAt time.Time          `json:"created_at"`
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Name      string             `json:"name"`
	Kind      domain.ProfileKind `json:"kind"`
}

// Partition converts the profile row to a derivation partition
func (p Profile) Partition() domain.Partition {
	return domain.Partition{UserID: p.UserID, ProfileID: p.ID, Kind: p.Kind}
}

// ProfileRepository handles business profile persistence
type ProfileRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: log.With().Str("repo", "profiles").Logger(),
	}
}

// Create inserts a new business profile
func (r *ProfileRepository) Create(p Profile) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO business_profiles (id, user_id, name, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, string(p.Kind), createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile %s: %w", p.ID, err)
	}
	return nil
}

// ListByUser returns all profiles owned by a user
func (r *ProfileRepository) ListByUser(userID string) ([]Profile, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, name, kind, created_at FROM business_profiles WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var kind string
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		p.Kind = domain.ProfileKind(kind)
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// DistinctUserIDs returns all user ids that own at least one profile
func (r *ProfileRepository) DistinctUserIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT user_id FROM business_profiles ORDER BY user_id`)
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
