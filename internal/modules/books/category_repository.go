package books

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// CategoryRepository handles category persistence
type CategoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sql.DB, log zerolog.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:  db,
		log: log.With().Str("repo", "categories").Logger(),
	}
}

// Upsert inserts a category or updates its type if it already exists
// for the partition
func (r *CategoryRepository) Upsert(c domain.Category) error {
	query := `
		INSERT INTO categories (user_id, business_profile_id, name, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, business_profile_id, name) DO UPDATE SET type = excluded.type
	`

	_, err := r.db.Exec(query, c.UserID, c.ProfileID, c.Name, string(c.Type))
	if err != nil {
		return fmt.Errorf("failed to upsert category %q: %w", c.Name, err)
	}
	return nil
}

// ListByPartition returns all categories for a partition ordered by name
func (r *CategoryRepository) ListByPartition(p domain.Partition) ([]domain.Category, error) {
	query := `
		SELECT user_id, business_profile_id, name, type
		FROM categories
		WHERE user_id = ? AND business_profile_id = ?
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query, p.UserID, p.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		var typ string
		if err := rows.Scan(&c.UserID, &c.ProfileID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		c.Type = domain.TransactionType(typ)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
