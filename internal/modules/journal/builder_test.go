package journal

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/database"
	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/modules/accounts"
	qt "github.com/quillbooks/quill/internal/testing"
)

type testEnv struct {
	db       *database.DB
	builder  *Builder
	repo     *Repository
	accounts *accounts.Builder
	acctRepo *accounts.Repository
}

func newTestEnv(t *testing.T) (*testEnv, func()) {
	db, cleanup := qt.NewTestDB(t, "books")

	acctRepo := accounts.NewRepository(db.Conn(), zerolog.Nop())
	acctBuilder := accounts.NewBuilder(acctRepo, zerolog.Nop())
	repo := NewRepository(db.Conn(), zerolog.Nop())

	return &testEnv{
		db:       db,
		builder:  NewBuilder(repo, acctBuilder, zerolog.Nop()),
		repo:     repo,
		accounts: acctBuilder,
		acctRepo: acctRepo,
	}, cleanup
}

func (e *testEnv) deriveAccounts(t *testing.T, p domain.Partition, categories []domain.Category) {
	t.Helper()
	_, err := e.accounts.Build(p, categories)
	require.NoError(t, err)
}

func TestBuildCreatesBalancedEntries(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	env.deriveAccounts(t, partition, qt.NewCategoryFixtures(partition))

	txs := qt.NewTransactionFixtures(partition)
	report, err := env.builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 0, report.Duplicates)
	assert.Equal(t, 0, report.Skipped)

	entries, err := env.repo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	checking, err := env.acctRepo.FindByName(partition, "Checking")
	require.NoError(t, err)
	sales, err := env.acctRepo.FindByName(partition, "Sales")
	require.NoError(t, err)
	supplies, err := env.acctRepo.FindByName(partition, "Office Supplies")
	require.NoError(t, err)

	// Income: debit cash, credit category
	first := entries[0]
	assert.Equal(t, "JE-000001", first.EntryNumber)
	assert.Equal(t, "tx-1", first.Reference)
	require.Len(t, first.Lines, 2)
	assert.Equal(t, checking.ID, first.Lines[0].AccountID)
	assert.True(t, first.Lines[0].DebitAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, sales.ID, first.Lines[1].AccountID)
	assert.True(t, first.Lines[1].CreditAmount.Equal(decimal.NewFromInt(1000)))

	// Expense: debit category, credit cash
	second := entries[1]
	assert.Equal(t, "JE-000002", second.EntryNumber)
	assert.Equal(t, supplies.ID, second.Lines[0].AccountID)
	assert.True(t, second.Lines[0].DebitAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, checking.ID, second.Lines[1].AccountID)
	assert.True(t, second.Lines[1].CreditAmount.Equal(decimal.NewFromInt(400)))

	// Every entry balances
	for _, e := range entries {
		assert.True(t, e.Balanced(), e.EntryNumber)
		assert.True(t, e.TotalDebit.Equal(e.TotalCredit), e.EntryNumber)
	}
}

func TestBuildFailsFastWithoutCashAccount(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	// No account derivation: partition has no Checking account

	_, err := env.builder.Build(partition, qt.NewTransactionFixtures(partition))
	assert.ErrorIs(t, err, ErrNoCashAccount)
}

func TestBuildIsIdempotentByReference(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	env.deriveAccounts(t, partition, qt.NewCategoryFixtures(partition))
	txs := qt.NewTransactionFixtures(partition)

	first, err := env.builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)

	// Re-run creates zero new entries
	second, err := env.builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Duplicates)

	entries, err := env.repo.ListByPartition(partition)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestEntryNumbersAreContiguousAcrossPartitions(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	first := qt.NewPartitionFixture()
	second := domain.Partition{UserID: first.UserID, ProfileID: "profile-zz99", Kind: domain.ProfilePersonal}

	env.deriveAccounts(t, first, qt.NewCategoryFixtures(first))
	env.deriveAccounts(t, second, nil)

	_, err := env.builder.Build(first, qt.NewTransactionFixtures(first))
	require.NoError(t, err)

	var moreTxs []domain.Transaction
	for i := 0; i < 3; i++ {
		moreTxs = append(moreTxs, domain.Transaction{
			ID:        fmt.Sprintf("tx-p2-%d", i),
			UserID:    second.UserID,
			ProfileID: second.ProfileID,
			Date:      time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Amount:    decimal.NewFromInt(100),
			Category:  "Freelance",
			Type:      domain.TransactionIncome,
		})
	}
	_, err = env.builder.Build(second, moreTxs)
	require.NoError(t, err)

	// One continuous audit trail per user: numbers keep climbing across
	// profiles with no gaps or repeats
	entriesSecond, err := env.repo.ListByPartition(second)
	require.NoError(t, err)
	require.Len(t, entriesSecond, 3)
	assert.Equal(t, "JE-000004", entriesSecond[0].EntryNumber)
	assert.Equal(t, "JE-000005", entriesSecond[1].EntryNumber)
	assert.Equal(t, "JE-000006", entriesSecond[2].EntryNumber)
}

func TestEntrySequenceSurvivesRestart(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	env.deriveAccounts(t, partition, qt.NewCategoryFixtures(partition))

	_, err := env.builder.Build(partition, qt.NewTransactionFixtures(partition))
	require.NoError(t, err)

	// A fresh repository against the same database continues the
	// sequence instead of restarting at 1
	freshRepo := NewRepository(env.db.Conn(), zerolog.Nop())
	freshBuilder := NewBuilder(freshRepo, env.accounts, zerolog.Nop())

	later := domain.Transaction{
		ID:        "tx-later",
		UserID:    partition.UserID,
		ProfileID: partition.ProfileID,
		Date:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.NewFromInt(50),
		Category:  "Sales",
		Type:      domain.TransactionIncome,
	}
	report, err := freshBuilder.Build(partition, []domain.Transaction{later})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)

	entries, err := freshRepo.ListByPartition(partition)
	require.NoError(t, err)
	assert.Equal(t, "JE-000004", entries[len(entries)-1].EntryNumber)
}

func TestBuildSkipsAnomaliesAndContinues(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	env.deriveAccounts(t, partition, qt.NewCategoryFixtures(partition))

	txs := []domain.Transaction{
		{
			ID: "tx-bad", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Amount: decimal.Zero, Category: "Sales", Type: domain.TransactionIncome,
		},
		{
			ID: "tx-good", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(250), Category: "Sales", Type: domain.TransactionIncome,
		},
	}

	report, err := env.builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
}

func TestRepositoryRejectsUnbalancedEntry(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	env.deriveAccounts(t, partition, nil)

	unbalanced := domain.JournalEntry{
		UserID:      partition.UserID,
		ProfileID:   partition.ProfileID,
		Date:        time.Now(),
		Reference:   "tx-x",
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(90),
		Lines: []domain.JournalLine{
			{AccountID: 1, DebitAmount: decimal.NewFromInt(100)},
			{AccountID: 2, CreditAmount: decimal.NewFromInt(90)},
		},
	}

	_, err := env.repo.Create(unbalanced)
	assert.ErrorIs(t, err, ErrUnbalanced)
}
