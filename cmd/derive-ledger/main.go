// Derive-ledger backfill tool.
//
// Re-derives the chart of accounts, journal and reconciliations for a
// single user (-user) or for every user in the books database (-all),
// then prints a per-partition summary. Intended for maintenance and
// backfills; the server runs the same pipeline on its own schedule.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/config"
	"github.com/quillbooks/quill/internal/database"
	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/books"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/ledger"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
	"github.com/quillbooks/quill/pkg/logger"
)

func main() {
	userID := flag.String("user", "", "derive ledger for this user only")
	all := flag.Bool("all", false, "derive ledgers for every user")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if (*userID == "" && !*all) || (*userID != "" && *all) {
		fmt.Fprintln(os.Stderr, "usage: derive-ledger -user <id> | -all")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	service, cleanup, err := buildService(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize derivation pipeline")
	}
	defer cleanup()

	var reports []ledger.RunReport
	if *all {
		reports, err = service.DeriveAll()
	} else {
		var report *ledger.RunReport
		report, err = service.Derive(*userID)
		if report != nil {
			reports = []ledger.RunReport{*report}
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Derivation failed")
	}

	for _, report := range reports {
		printReport(report)
	}
}

// buildService opens both databases and wires the derivation pipeline.
// The returned cleanup closes the databases.
func buildService(cfg *config.Config, log zerolog.Logger) (*ledger.Service, func(), error) {
	booksDB, err := database.New(database.Config{
		Path:    cfg.BooksDBPath(),
		Profile: database.ProfileLedger,
		Name:    "books",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open books database: %w", err)
	}

	cacheDB, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		_ = booksDB.Close()
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	cleanup := func() {
		_ = booksDB.Close()
		_ = cacheDB.Close()
	}

	if err := booksDB.Migrate(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to migrate books database: %w", err)
	}
	if err := cacheDB.Migrate(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	profiles := books.NewProfileRepository(booksDB.Conn(), log)
	transactions := books.NewTransactionRepository(booksDB.Conn(), log)
	categories := books.NewCategoryRepository(booksDB.Conn(), log)

	accountsRepo := accounts.NewRepository(booksDB.Conn(), log)
	accountsBuilder := accounts.NewBuilder(accountsRepo, log)
	journalBuilder := journal.NewBuilder(journal.NewRepository(booksDB.Conn(), log), accountsBuilder, log)
	reconBuilder := reconciliation.NewBuilder(reconciliation.NewRepository(booksDB.Conn(), log), log)

	service := ledger.NewService(
		profiles, transactions, categories,
		accountsBuilder, journalBuilder, reconBuilder,
		ledger.NewRunRepository(cacheDB.Conn(), log),
		events.NewManager(events.NewBus(), log),
		log,
	)

	return service, cleanup, nil
}

func printReport(report ledger.RunReport) {
	fmt.Printf("user %s: run %s (%s)\n",
		report.UserID, report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	for _, p := range report.Partitions {
		if p.Skipped {
			fmt.Printf("  profile %s: skipped (%s)\n", p.ProfileID, p.SkipReason)
			continue
		}
		fmt.Printf("  profile %s: %d accounts, %d entries, %d reconciliations\n",
			p.ProfileID, p.Accounts.Created, p.Journal.Created, p.Reconciliations.Created+p.Reconciliations.Updated)
	}
	fmt.Printf("  totals: %d accounts, %d entries, %d reconciliations, %d/%d partitions\n",
		report.AccountsCreated(), report.EntriesCreated(),
		report.ReconciliationsCreated(),
		report.PartitionsProcessed(), report.PartitionsProcessed()+report.PartitionsSkipped())
}
