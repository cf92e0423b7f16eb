package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	var received []*Event
	bus.Subscribe(LedgerDerived, func(e *Event) {
		received = append(received, e)
	})

	bus.Emit(LedgerDerived, "ledger", map[string]interface{}{"user_id": "user-1"})
	bus.Emit(CreditScoreComputed, "creditscore", nil)

	require.Len(t, received, 1)
	assert.Equal(t, LedgerDerived, received[0].Type)
	assert.Equal(t, "ledger", received[0].Module)
	assert.Equal(t, "user-1", received[0].Data["user_id"])
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()

	count := 0
	bus.SubscribeAll(func(e *Event) { count++ })

	bus.Emit(LedgerDerived, "ledger", nil)
	bus.Emit(PartitionSkipped, "ledger", nil)
	bus.Emit(ErrorOccurred, "ledger", nil)

	assert.Equal(t, 3, count)
}

func TestManagerEmitTyped(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(LedgerDerived, func(e *Event) { got = e })

	manager.EmitTyped("ledger", &LedgerDerivedData{
		RunID:          "run-1",
		UserID:         "user-1",
		EntriesCreated: 3,
	})

	require.NotNil(t, got)
	assert.Equal(t, "run-1", got.Data["run_id"])
	assert.Equal(t, float64(3), got.Data["entries_created"])
}

func TestManagerEmitError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("journal", errors.New("boom"), map[string]interface{}{"transaction_id": "tx-9"})

	require.NotNil(t, got)
	assert.Equal(t, "boom", got.Data["error"])
}
