package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quill/internal/domain"
)

// AccountResolver resolves the ledger accounts entries post against.
// Implemented by the accounts builder; defined here so the journal
// package can be tested with a mock.
type AccountResolver interface {
	FindByName(p domain.Partition, name string) (*domain.Account, error)
	ResolveCategoryAccount(p domain.Partition, categoryName string, txType domain.TransactionType) (*domain.Account, error)
}

// ErrNoCashAccount signals that the partition has no checking account
// to post against. The orchestrator skips the whole partition instead
// of crashing the run.
var ErrNoCashAccount = errors.New("partition has no checking account")

// cashAccountName is the standard account every entry posts against
const cashAccountName = "Checking"

// BuildReport summarizes one journal derivation pass
type BuildReport struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"` // transactions that already had an entry
	Skipped    int `json:"skipped"`    // anomalies and per-item failures
}

// Builder converts each transaction into exactly one balanced journal
// entry with two lines. Per-transaction failures are logged and
// skipped; only invariant violations abort.
type Builder struct {
	repo     *Repository
	accounts AccountResolver
	log      zerolog.Logger
}

// NewBuilder creates a new journal builder
func NewBuilder(repo *Repository, accounts AccountResolver, log zerolog.Logger) *Builder {
	return &Builder{
		repo:     repo,
		accounts: accounts,
		log:      log.With().Str("component", "journal_builder").Logger(),
	}
}

// Build derives journal entries for a partition's transactions in
// chronological order. Returns ErrNoCashAccount when the partition has
// no checking account.
func (b *Builder) Build(p domain.Partition, txs []domain.Transaction) (BuildReport, error) {
	var report BuildReport

	cash, err := b.accounts.FindByName(p, cashAccountName)
	if err != nil {
		return report, fmt.Errorf("failed to look up cash account: %w", err)
	}
	if cash == nil {
		return report, fmt.Errorf("%w (user %s, profile %s)", ErrNoCashAccount, p.UserID, p.ProfileID)
	}

	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for _, tx := range sorted {
		if err := domain.ValidateTransaction(tx); err != nil {
			b.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Skipping invalid transaction")
			report.Skipped++
			continue
		}

		exists, err := b.repo.ExistsByReference(p.UserID, tx.ID)
		if err != nil {
			b.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Duplicate check failed, skipping")
			report.Skipped++
			continue
		}
		if exists {
			report.Duplicates++
			continue
		}

		entry, err := b.buildEntry(p, tx, cash)
		if err != nil {
			if errors.Is(err, ErrUnbalanced) {
				// Structurally impossible given the construction rules;
				// never swallowed
				return report, err
			}
			b.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to build journal entry, skipping")
			report.Skipped++
			continue
		}

		if _, err := b.repo.Create(*entry); err != nil {
			if errors.Is(err, ErrUnbalanced) {
				return report, err
			}
			b.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to persist journal entry, skipping")
			report.Skipped++
			continue
		}
		report.Created++
	}

	b.log.Info().
		Str("user_id", p.UserID).
		Str("profile_id", p.ProfileID).
		Int("created", report.Created).
		Int("duplicates", report.Duplicates).
		Int("skipped", report.Skipped).
		Msg("Journal entries derived")

	return report, nil
}

// buildEntry constructs the balanced two-line entry for one transaction:
//   - INCOME of magnitude A: debit cash A, credit category account A
//   - EXPENSE of magnitude A: debit category account A, credit cash A
func (b *Builder) buildEntry(p domain.Partition, tx domain.Transaction, cash *domain.Account) (*domain.JournalEntry, error) {
	categoryAccount, err := b.accounts.ResolveCategoryAccount(p, tx.Category, tx.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category account %q: %w", tx.Category, err)
	}

	amount := tx.Magnitude()

	var lines []domain.JournalLine
	if tx.Type == domain.TransactionIncome {
		lines = []domain.JournalLine{
			{AccountID: cash.ID, Description: tx.Description, DebitAmount: amount, CreditAmount: decimal.Zero},
			{AccountID: categoryAccount.ID, Description: tx.Description, DebitAmount: decimal.Zero, CreditAmount: amount},
		}
	} else {
		lines = []domain.JournalLine{
			{AccountID: categoryAccount.ID, Description: tx.Description, DebitAmount: amount, CreditAmount: decimal.Zero},
			{AccountID: cash.ID, Description: tx.Description, DebitAmount: decimal.Zero, CreditAmount: amount},
		}
	}

	entry := &domain.JournalEntry{
		UserID:      p.UserID,
		ProfileID:   p.ProfileID,
		Date:        tx.Date,
		Description: entryDescription(tx),
		Reference:   tx.ID,
		TotalDebit:  amount,
		TotalCredit: amount,
		Lines:       lines,
	}

	if !entry.Balanced() {
		return nil, fmt.Errorf("entry for transaction %s: %w", tx.ID, ErrUnbalanced)
	}

	return entry, nil
}

func entryDescription(tx domain.Transaction) string {
	if tx.Description != "" {
		return tx.Description
	}
	return fmt.Sprintf("%s - %s", tx.Category, tx.Date.Format("2006-01-02"))
}
