package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/domain"
	qt "github.com/quillbooks/quill/internal/testing"
)

func monthlyIncome(month int, amount int64) domain.Transaction {
	return domain.Transaction{
		ID:       fmt.Sprintf("tx-2024-%02d", month),
		UserID:   "user-1",
		Date:     time.Date(2024, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
		Amount:   decimal.NewFromInt(amount),
		Category: "Sales",
		Type:     domain.TransactionIncome,
	}
}

func TestForecastLinearTrend(t *testing.T) {
	f := NewForecaster(zerolog.Nop())

	// Perfectly linear history: 100, 200, 300, 400
	txs := []domain.Transaction{
		monthlyIncome(1, 100),
		monthlyIncome(2, 200),
		monthlyIncome(3, 300),
		monthlyIncome(4, 400),
	}

	result := f.Forecast(txs, 2)
	require.Len(t, result.History, 4)
	require.Len(t, result.Projections, 2)

	assert.InDelta(t, 250, result.MeanNet, 1e-9)
	assert.InDelta(t, 100, result.Slope, 1e-9)

	// Trend continues: May 500, June 600
	assert.Equal(t, 5, result.Projections[0].Month)
	assert.InDelta(t, 500, result.Projections[0].Net, 1e-9)
	assert.Equal(t, 6, result.Projections[1].Month)
	assert.InDelta(t, 600, result.Projections[1].Net, 1e-9)
}

func TestForecastSingleMonthRepeatsMean(t *testing.T) {
	f := NewForecaster(zerolog.Nop())

	result := f.Forecast([]domain.Transaction{monthlyIncome(6, 1500)}, 3)
	require.Len(t, result.Projections, 3)
	for _, p := range result.Projections {
		assert.InDelta(t, 1500, p.Net, 1e-9)
	}
	assert.Equal(t, 7, result.Projections[0].Month)
	assert.Equal(t, 9, result.Projections[2].Month)
}

func TestForecastCrossesYearBoundary(t *testing.T) {
	f := NewForecaster(zerolog.Nop())

	result := f.Forecast([]domain.Transaction{monthlyIncome(11, 100), monthlyIncome(12, 100)}, 2)
	require.Len(t, result.Projections, 2)
	assert.Equal(t, 2025, result.Projections[0].Year)
	assert.Equal(t, 1, result.Projections[0].Month)
	assert.Equal(t, 2, result.Projections[1].Month)
}

func TestForecastEmptyHistory(t *testing.T) {
	f := NewForecaster(zerolog.Nop())

	result := f.Forecast(nil, 3)
	assert.Empty(t, result.History)
	assert.Empty(t, result.Projections)
}

func TestForecastMixedFlows(t *testing.T) {
	f := NewForecaster(zerolog.Nop())

	partition := qt.NewPartitionFixture()
	result := f.Forecast(qt.NewTransactionFixtures(partition), 1)

	// January nets 600, February nets 200
	require.Len(t, result.History, 2)
	assert.InDelta(t, 600, result.History[0].Net, 1e-9)
	assert.InDelta(t, 200, result.History[1].Net, 1e-9)
	require.Len(t, result.Projections, 1)
	assert.Equal(t, 3, result.Projections[0].Month)
}
