// Quill server binary.
//
// Starts the HTTP API, the event bus (optionally bridged to Kafka) and
// the background scheduler that re-derives ledgers and maintains the
// databases.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quillbooks/quill/internal/config"
	"github.com/quillbooks/quill/internal/database"
	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/events/kafka"
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
	"github.com/quillbooks/quill/internal/scheduler"
	"github.com/quillbooks/quill/internal/server"
	"github.com/quillbooks/quill/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Config{})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting Quill")

	booksDB, err := database.New(database.Config{
		Path:    cfg.BooksDBPath(),
		Profile: database.ProfileLedger,
		Name:    "books",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open books database")
	}
	defer func() {
		if err := booksDB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close books database")
		}
	}()

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer func() {
		if err := cacheDB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close cache database")
		}
	}()

	if err := booksDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate books database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// Source-of-truth repositories
	profiles := books.NewProfileRepository(booksDB.Conn(), log)
	transactions := books.NewTransactionRepository(booksDB.Conn(), log)
	categories := books.NewCategoryRepository(booksDB.Conn(), log)
	debts := books.NewDebtRepository(booksDB.Conn(), log)
	recurring := books.NewRecurringChargeRepository(booksDB.Conn(), log)

	// Derivation pipeline
	accountsRepo := accounts.NewRepository(booksDB.Conn(), log)
	accountsBuilder := accounts.NewBuilder(accountsRepo, log)
	journalRepo := journal.NewRepository(booksDB.Conn(), log)
	journalBuilder := journal.NewBuilder(journalRepo, accountsBuilder, log)
	reconRepo := reconciliation.NewRepository(booksDB.Conn(), log)
	reconBuilder := reconciliation.NewBuilder(reconRepo, log)
	runRepo := ledger.NewRunRepository(cacheDB.Conn(), log)

	bus := events.NewBus()
	eventManager := events.NewManager(bus, log)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		publisher.Attach(bus)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka publisher")
			}
		}()
		log.Info().
			Strs("brokers", cfg.KafkaBrokers).
			Str("topic", cfg.KafkaTopic).
			Msg("Kafka event publishing enabled")
	}

	ledgerService := ledger.NewService(
		profiles, transactions, categories,
		accountsBuilder, journalBuilder, reconBuilder,
		runRepo, eventManager, log,
	)

	creditService := creditscore.NewService(
		transactions, debts, recurring,
		creditscore.NewRepository(booksDB.Conn(), log),
		eventManager, log,
	)

	// Background jobs
	sched := scheduler.New(log)
	if cfg.DeriveSchedule != "" {
		if err := sched.AddJob(cfg.DeriveSchedule, scheduler.NewDeriveAllJob(ledgerService, log)); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.DeriveSchedule).Msg("Invalid derive schedule")
		}
	}
	maintenance := scheduler.NewMaintenanceJob(
		[]scheduler.DatabaseMaintainer{booksDB, cacheDB}, log,
	)
	if err := sched.AddJob("0 3 * * *", maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	if err := sched.AddJob("@daily", scheduler.NewPruneRunsJob(runRepo, 0, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register prune job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:      log,
		BooksDB:  booksDB,
		CacheDB:  cacheDB,
		Config:   cfg,
		EventBus: bus,
		LedgerHandlers: ledgerhandlers.NewHandler(
			ledgerService, accountsRepo, journalRepo, reconRepo, log,
		),
		CreditScoreHandlers: creditscorehandlers.NewHandler(creditService, log),
		ForecastHandlers: forecasthandlers.NewHandler(
			forecast.NewForecaster(log), transactions, log,
		),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
