package accounts

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
)

// BuildReport summarizes one chart-of-accounts derivation
type BuildReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Builder derives a partition's chart of accounts: the 12 standard
// accounts plus one account per category. Re-running is idempotent:
// accounts are upserted by (user, code), never duplicated.
type Builder struct {
	repo *Repository
	log  zerolog.Logger
}

// NewBuilder creates a new chart-of-accounts builder
func NewBuilder(repo *Repository, log zerolog.Logger) *Builder {
	return &Builder{
		repo: repo,
		log:  log.With().Str("component", "accounts_builder").Logger(),
	}
}

// Build derives the chart of accounts for one partition. A single
// account failure is logged and skipped; the batch continues.
func (b *Builder) Build(p domain.Partition, categories []domain.Category) (BuildReport, error) {
	var report BuildReport

	for _, std := range standardAccounts(p.Kind) {
		account := domain.Account{
			UserID:      p.UserID,
			ProfileID:   p.ProfileID,
			Code:        formatCode(std.numeric, p.ProfileID),
			Name:        std.name,
			Type:        std.accountType,
			Description: std.description,
		}
		b.upsert(account, &report)
	}

	existing, err := b.repo.ListByPartition(p)
	if err != nil {
		return report, fmt.Errorf("failed to list existing accounts: %w", err)
	}

	for _, category := range categories {
		// Categories seen before keep their code; new ones get the next
		// free numeric in their type's block
		current, err := b.repo.FindByName(p, category.Name)
		if err != nil {
			b.log.Error().Err(err).Str("category", category.Name).Msg("Failed to look up category account, skipping")
			report.Skipped++
			continue
		}

		code := ""
		if current != nil {
			code = current.Code
		} else {
			numeric := nextNumeric(existing, category.Type)
			code = formatCode(numeric, p.ProfileID)
		}

		account := domain.Account{
			UserID:      p.UserID,
			ProfileID:   p.ProfileID,
			Code:        code,
			Name:        category.Name,
			Type:        categoryAccountType(category.Type),
			Description: fmt.Sprintf("Category account for %s", category.Name),
		}

		if b.upsert(account, &report) && current == nil {
			// Track the freshly allocated code so the next new category
			// in this batch advances past it
			existing = append(existing, account)
		}
	}

	b.log.Info().
		Str("user_id", p.UserID).
		Str("profile_id", p.ProfileID).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Msg("Chart of accounts derived")

	return report, nil
}

// FindByName returns the partition's account with the given name, or
// nil when absent
func (b *Builder) FindByName(p domain.Partition, name string) (*domain.Account, error) {
	return b.repo.FindByName(p, name)
}

// ResolveCategoryAccount finds the partition's account named after the
// category, creating one on the fly when absent. The journal builder
// uses this for transactions whose category never got a chart account.
func (b *Builder) ResolveCategoryAccount(p domain.Partition, categoryName string, txType domain.TransactionType) (*domain.Account, error) {
	account, err := b.repo.FindByName(p, categoryName)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	existing, err := b.repo.ListByPartition(p)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing accounts: %w", err)
	}

	fresh := domain.Account{
		UserID:      p.UserID,
		ProfileID:   p.ProfileID,
		Code:        formatCode(nextNumeric(existing, txType), p.ProfileID),
		Name:        categoryName,
		Type:        categoryAccountType(txType),
		Description: fmt.Sprintf("Category account for %s", categoryName),
	}

	if _, err := b.repo.Upsert(fresh); err != nil {
		return nil, fmt.Errorf("failed to create category account %q: %w", categoryName, err)
	}

	b.log.Debug().
		Str("category", categoryName).
		Str("code", fresh.Code).
		Msg("Created category account on the fly")

	return b.repo.FindByName(p, categoryName)
}

func (b *Builder) upsert(account domain.Account, report *BuildReport) bool {
	created, err := b.repo.Upsert(account)
	if err != nil {
		b.log.Error().Err(err).Str("code", account.Code).Str("name", account.Name).
			Msg("Failed to upsert account, skipping")
		report.Skipped++
		return false
	}
	if created {
		report.Created++
	} else {
		report.Updated++
	}
	return true
}
