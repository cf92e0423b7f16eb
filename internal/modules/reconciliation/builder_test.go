package reconciliation

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/domain"
	qt "github.com/quillbooks/quill/internal/testing"
)

func newTestBuilder(t *testing.T) (*Builder, *Repository, func()) {
	db, cleanup := qt.NewTestDB(t, "books")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	return NewBuilder(repo, zerolog.Nop()), repo, cleanup
}

func TestBuildRollsUpMonthlyBalances(t *testing.T) {
	builder, repo, cleanup := newTestBuilder(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	report, err := builder.Build(partition, qt.NewTransactionFixtures(partition))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 0, report.Skipped)

	recs, err := repo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// January: +1000 income, -400 expense
	jan := recs[0]
	assert.Equal(t, 2024, jan.Year)
	assert.Equal(t, 1, jan.Month)
	assert.True(t, jan.OpeningBalance.IsZero())
	assert.True(t, jan.ClosingBalance.Equal(decimal.NewFromInt(600)), jan.ClosingBalance.String())
	assert.True(t, jan.BankBalance.Equal(jan.ClosingBalance))
	assert.True(t, jan.Difference.IsZero())
	assert.Equal(t, domain.ReconciliationCompleted, jan.Status)

	// February opens with January's closing balance
	feb := recs[1]
	assert.Equal(t, 2, feb.Month)
	assert.True(t, feb.OpeningBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, feb.ClosingBalance.Equal(decimal.NewFromInt(800)), feb.ClosingBalance.String())
	assert.Equal(t, domain.ReconciliationCompleted, feb.Status)
}

func TestBuildIsIdempotentPerMonth(t *testing.T) {
	builder, repo, cleanup := newTestBuilder(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	txs := qt.NewTransactionFixtures(partition)

	first, err := builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	// Re-run updates the same rows instead of duplicating months
	second, err := builder.Build(partition, txs)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)

	recs, err := repo.ListByPartition(partition)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestBuildExcludesInvalidTransactions(t *testing.T) {
	builder, repo, cleanup := newTestBuilder(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	txs := []domain.Transaction{
		{
			ID: "tx-ok", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(300), Category: "Sales", Type: domain.TransactionIncome,
		},
		{
			// Sign contradicts the type: excluded from the rollup
			ID: "tx-mismatch", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(999), Category: "Rent", Type: domain.TransactionExpense,
		},
	}

	_, err := builder.Build(partition, txs)
	require.NoError(t, err)

	recs, err := repo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].ClosingBalance.Equal(decimal.NewFromInt(300)))
}

func TestBuildCarriesBalanceAcrossGapMonths(t *testing.T) {
	builder, repo, cleanup := newTestBuilder(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	txs := []domain.Transaction{
		{
			ID: "tx-jan", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(500), Category: "Sales", Type: domain.TransactionIncome,
		},
		{
			// Nothing in February or March
			ID: "tx-apr", UserID: partition.UserID, ProfileID: partition.ProfileID,
			Date:   time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
			Amount: decimal.NewFromInt(-100), Category: "Rent", Type: domain.TransactionExpense,
		},
	}

	_, err := builder.Build(partition, txs)
	require.NoError(t, err)

	recs, err := repo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	april := recs[1]
	assert.Equal(t, 4, april.Month)
	assert.True(t, april.OpeningBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, april.ClosingBalance.Equal(decimal.NewFromInt(400)))
}

func TestBuildWithNoTransactions(t *testing.T) {
	builder, repo, cleanup := newTestBuilder(t)
	defer cleanup()

	partition := qt.NewPartitionFixture()
	report, err := builder.Build(partition, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)

	recs, err := repo.ListByPartition(partition)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
