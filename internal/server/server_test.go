package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbooks/quill/internal/config"
	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/books"
	"github.com/quillbooks/quill/internal/modules/creditscore"
	creditscorehandlers "github.com/quillbooks/quill/internal/modules/creditscore/handlers"
	"github.com/quillbooks/quill/internal/modules/forecast"
	forecasthandlers "github.com/quillbooks/quill/internal/modules/forecast/handlers"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/ledger"
	ledgerhandlers "github.com/quillbooks/quill/internal/modules/ledger/handlers"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
	qt "github.com/quillbooks/quill/internal/testing"
)

func newTestServer(t *testing.T) (*Server, func()) {
	booksDB, cleanupBooks := qt.NewTestDB(t, "books")
	cacheDB, cleanupCache := qt.NewTestDB(t, "cache")

	log := zerolog.Nop()
	profiles := books.NewProfileRepository(booksDB.Conn(), log)
	transactions := books.NewTransactionRepository(booksDB.Conn(), log)
	categories := books.NewCategoryRepository(booksDB.Conn(), log)
	debts := books.NewDebtRepository(booksDB.Conn(), log)
	recurring := books.NewRecurringChargeRepository(booksDB.Conn(), log)

	accountsRepo := accounts.NewRepository(booksDB.Conn(), log)
	accountsBuilder := accounts.NewBuilder(accountsRepo, log)
	journalRepo := journal.NewRepository(booksDB.Conn(), log)
	journalBuilder := journal.NewBuilder(journalRepo, accountsBuilder, log)
	reconRepo := reconciliation.NewRepository(booksDB.Conn(), log)
	reconBuilder := reconciliation.NewBuilder(reconRepo, log)

	bus := events.NewBus()
	ledgerService := ledger.NewService(
		profiles, transactions, categories,
		accountsBuilder, journalBuilder, reconBuilder,
		ledger.NewRunRepository(cacheDB.Conn(), log),
		events.NewManager(bus, log),
		log,
	)

	creditService := creditscore.NewService(
		transactions, debts, recurring,
		creditscore.NewRepository(booksDB.Conn(), log),
		events.NewManager(bus, log),
		log,
	)

	// Seed one profile with the canonical fixture data
	partition := qt.NewPartitionFixture()
	require.NoError(t, profiles.Create(books.Profile{
		ID:     partition.ProfileID,
		UserID: partition.UserID,
		Name:   "Acme Consulting",
		Kind:   partition.Kind,
	}))
	for _, c := range qt.NewCategoryFixtures(partition) {
		require.NoError(t, categories.Upsert(c))
	}
	for _, tx := range qt.NewTransactionFixtures(partition) {
		require.NoError(t, transactions.Create(tx))
	}

	srv := New(Config{
		Log:      log,
		BooksDB:  booksDB,
		CacheDB:  cacheDB,
		Config:   &config.Config{Port: 0},
		EventBus: bus,
		LedgerHandlers: ledgerhandlers.NewHandler(
			ledgerService, accountsRepo, journalRepo, reconRepo, log,
		),
		CreditScoreHandlers: creditscorehandlers.NewHandler(creditService, log),
		ForecastHandlers: forecasthandlers.NewHandler(
			forecast.NewForecaster(log), transactions, log,
		),
	})

	return srv, func() {
		cleanupBooks()
		cleanupCache()
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestDeriveEndpointFullCycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"user_id":"user-1"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ledger/derive", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data     ledger.RunReport       `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "user-1", envelope.Data.UserID)
	assert.Equal(t, 3, envelope.Data.EntriesCreated())
	assert.Contains(t, envelope.Metadata, "timestamp")

	// Derived entries are queryable afterwards
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/ledger/journal-entries?user_id=user-1&profile_id=profile-abcd1234", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries.Data, 3)
}

func TestDeriveEndpointRequiresUserID(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ledger/derive", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreditScoreEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/user-1/credit-score", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data     creditscore.Result     `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.GreaterOrEqual(t, envelope.Data.Score, 300)
	assert.LessOrEqual(t, envelope.Data.Score, 850)
	assert.Len(t, envelope.Data.Factors, 5)
	assert.Contains(t, envelope.Metadata, "timestamp")
}

func TestForecastEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/forecast?user_id=user-1&profile_id=profile-abcd1234&months=2", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data forecast.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.History, 2)
	assert.Len(t, envelope.Data.Projections, 2)
}

func TestSystemStatusEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	databases, ok := status["databases"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ok", databases["books"])
	assert.Equal(t, "ok", databases["cache"])
}
