package creditscore

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/books"
	qt "github.com/quillbooks/quill/internal/testing"
)

func newTestService(t *testing.T) (*Service, *events.Bus, func()) {
	db, cleanup := qt.NewTestDB(t, "books")

	bus := events.NewBus()
	service := NewService(
		books.NewTransactionRepository(db.Conn(), zerolog.Nop()),
		books.NewDebtRepository(db.Conn(), zerolog.Nop()),
		books.NewRecurringChargeRepository(db.Conn(), zerolog.Nop()),
		NewRepository(db.Conn(), zerolog.Nop()),
		events.NewManager(bus, zerolog.Nop()),
		zerolog.Nop(),
	)
	service.now = func() time.Time { return testNow }

	return service, bus, func() {
		cleanup()
	}
}

func seedBooks(t *testing.T, s *Service) {
	t.Helper()
	partition := qt.NewPartitionFixture()
	for _, tx := range qt.NewTransactionFixtures(partition) {
		require.NoError(t, s.transactions.Create(tx))
	}
	for _, d := range qt.NewDebtFixtures(partition.UserID, testNow) {
		require.NoError(t, s.debts.Create(d))
	}
	for _, c := range qt.NewRecurringChargeFixtures(partition.UserID, testNow) {
		require.NoError(t, s.recurring.Create(c))
	}
}

func TestEstimateFromStoredData(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()
	seedBooks(t, service)

	result, err := service.Estimate("user-1")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Score, 300)
	assert.LessOrEqual(t, result.Score, 850)
	assert.Equal(t, 4, result.Accounts)
	require.Len(t, result.Factors, 5)

	// Estimation alone persists nothing
	history, err := service.History("user-1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEstimateAndSaveAppendsHistory(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()
	seedBooks(t, service)

	first, err := service.EstimateAndSave("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := service.EstimateAndSave("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	history, err := service.History("user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.Score, history[0].Score)
	require.Len(t, history[0].Factors, 5)
}

func TestEstimateForUnknownUser(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	// No data at all still yields a deterministic floor-ish score,
	// never an error
	result, err := service.Estimate("nobody")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, 300)
	assert.LessOrEqual(t, result.Score, 850)
}

func TestScoreEventsPublished(t *testing.T) {
	service, bus, cleanup := newTestService(t)
	defer cleanup()
	seedBooks(t, service)

	var received []*events.Event
	bus.SubscribeAll(func(event *events.Event) {
		received = append(received, event)
	})

	saved, err := service.EstimateAndSave("user-1")
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, events.CreditScoreComputed, received[0].Type)
	assert.Equal(t, "creditscore", received[0].Module)
	assert.Equal(t, "user-1", received[0].Data["user_id"])
	assert.Equal(t, float64(saved.Score), received[0].Data["score"])

	assert.Equal(t, events.CreditScoreSnapshotSaved, received[1].Type)
	assert.Equal(t, saved.ID, received[1].Data["snapshot_id"])
}

func TestHistoryLimit(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()
	seedBooks(t, service)

	for i := 0; i < 3; i++ {
		_, err := service.EstimateAndSave("user-1")
		require.NoError(t, err)
	}

	history, err := service.History("user-1", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
