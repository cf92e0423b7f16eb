package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/books"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
	qt "github.com/quillbooks/quill/internal/testing"
)

type testEnv struct {
	service      *Service
	profiles     *books.ProfileRepository
	transactions *books.TransactionRepository
	categories   *books.CategoryRepository
	accountsRepo *accounts.Repository
	journalRepo  *journal.Repository
	reconRepo    *reconciliation.Repository
	bus          *events.Bus
}

func newTestEnv(t *testing.T) (*testEnv, func()) {
	booksDB, cleanupBooks := qt.NewTestDB(t, "books")
	cacheDB, cleanupCache := qt.NewTestDB(t, "cache")

	log := zerolog.Nop()
	profiles := books.NewProfileRepository(booksDB.Conn(), log)
	transactions := books.NewTransactionRepository(booksDB.Conn(), log)
	categories := books.NewCategoryRepository(booksDB.Conn(), log)

	accountsRepo := accounts.NewRepository(booksDB.Conn(), log)
	accountsBuilder := accounts.NewBuilder(accountsRepo, log)
	journalRepo := journal.NewRepository(booksDB.Conn(), log)
	journalBuilder := journal.NewBuilder(journalRepo, accountsBuilder, log)
	reconRepo := reconciliation.NewRepository(booksDB.Conn(), log)
	reconBuilder := reconciliation.NewBuilder(reconRepo, log)

	bus := events.NewBus()
	service := NewService(
		profiles, transactions, categories,
		accountsBuilder, journalBuilder, reconBuilder,
		NewRunRepository(cacheDB.Conn(), log),
		events.NewManager(bus, log),
		log,
	)

	env := &testEnv{
		service:      service,
		profiles:     profiles,
		transactions: transactions,
		categories:   categories,
		accountsRepo: accountsRepo,
		journalRepo:  journalRepo,
		reconRepo:    reconRepo,
		bus:          bus,
	}
	return env, func() {
		cleanupBooks()
		cleanupCache()
	}
}

func (e *testEnv) seedPartition(t *testing.T) domain.Partition {
	t.Helper()
	partition := qt.NewPartitionFixture()

	require.NoError(t, e.profiles.Create(books.Profile{
		ID:     partition.ProfileID,
		UserID: partition.UserID,
		Name:   "Acme Consulting",
		Kind:   partition.Kind,
	}))
	for _, c := range qt.NewCategoryFixtures(partition) {
		require.NoError(t, e.categories.Upsert(c))
	}
	for _, tx := range qt.NewTransactionFixtures(partition) {
		require.NoError(t, e.transactions.Create(tx))
	}
	return partition
}

func TestDeriveFullPipeline(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	partition := env.seedPartition(t)

	report, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)

	// 12 standard accounts + Sales + Office Supplies
	assert.Equal(t, 14, report.AccountsCreated())
	assert.Equal(t, 3, report.EntriesCreated())
	assert.Equal(t, 2, report.ReconciliationsCreated())
	assert.Equal(t, 1, report.PartitionsProcessed())
	assert.Equal(t, 0, report.PartitionsSkipped())

	entries, err := env.journalRepo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "JE-000001", entries[0].EntryNumber)
	for _, e := range entries {
		assert.True(t, e.Balanced(), e.EntryNumber)
	}

	recs, err := env.reconRepo.ListByPartition(partition)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].OpeningBalance.IsZero())
	assert.True(t, recs[0].ClosingBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, recs[1].OpeningBalance.Equal(recs[0].ClosingBalance))
	assert.True(t, recs[1].ClosingBalance.Equal(decimal.NewFromInt(800)))
}

func TestDeriveIsIdempotent(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	partition := env.seedPartition(t)

	first, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, first.EntriesCreated())

	// Nothing new to derive on the second pass
	second, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AccountsCreated())
	assert.Equal(t, 0, second.EntriesCreated())
	assert.Equal(t, 1, second.PartitionsProcessed())

	entries, err := env.journalRepo.ListByPartition(partition)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDeriveRecordsRunHistory(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	partition := env.seedPartition(t)

	report, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)

	runs, err := env.service.RunHistory(partition.UserID, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].RunID)
	assert.Equal(t, 3, runs[0].EntriesCreated())
}

func TestDeriveEmitsEvents(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	partition := env.seedPartition(t)

	var derived *events.Event
	env.bus.Subscribe(events.LedgerDerived, func(e *events.Event) { derived = e })

	stages := map[events.EventType]*events.Event{}
	for _, eventType := range []events.EventType{
		events.AccountsDerived, events.JournalEntriesPosted, events.ReconciliationsUpdated,
	} {
		eventType := eventType
		env.bus.Subscribe(eventType, func(e *events.Event) { stages[eventType] = e })
	}

	_, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)

	require.NotNil(t, derived)
	assert.Equal(t, partition.UserID, derived.Data["user_id"])
	assert.Equal(t, float64(3), derived.Data["entries_created"])

	// Every pipeline stage announces its outcome for the partition
	require.Len(t, stages, 3)
	assert.Equal(t, 14, stages[events.AccountsDerived].Data["created"])
	assert.Equal(t, 3, stages[events.JournalEntriesPosted].Data["created"])
	assert.Equal(t, 2, stages[events.ReconciliationsUpdated].Data["created"])
	for _, event := range stages {
		assert.Equal(t, partition.ProfileID, event.Data["profile_id"])
	}
}

func TestDeriveProcessesAllProfilesSequentially(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	partition := env.seedPartition(t)

	second := domain.Partition{UserID: partition.UserID, ProfileID: "profile-xyz98765", Kind: domain.ProfilePersonal}
	require.NoError(t, env.profiles.Create(books.Profile{
		ID:     second.ProfileID,
		UserID: second.UserID,
		Name:   "Personal",
		Kind:   second.Kind,
	}))

	report, err := env.service.Derive(partition.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PartitionsProcessed())

	// Personal profile gets its own standard chart with its own suffix
	personalAccounts, err := env.accountsRepo.ListByPartition(second)
	require.NoError(t, err)
	assert.Len(t, personalAccounts, 12)
}

func TestDeriveAllCoversEveryUser(t *testing.T) {
	env, cleanup := newTestEnv(t)
	defer cleanup()
	env.seedPartition(t)

	other := domain.Partition{UserID: "user-2", ProfileID: "profile-u2aa1111", Kind: domain.ProfileBusiness}
	require.NoError(t, env.profiles.Create(books.Profile{
		ID:     other.ProfileID,
		UserID: other.UserID,
		Name:   "Second Shop",
		Kind:   other.Kind,
	}))

	reports, err := env.service.DeriveAll()
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}
