package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/modules/ledger"
)

// LedgerDeriver derives the full ledger for every known user.
// Satisfied by the ledger service; defined here so jobs can be tested
// with mocks.
type LedgerDeriver interface {
	DeriveAll() ([]ledger.RunReport, error)
}

// DatabaseMaintainer exposes the database upkeep operations the
// maintenance job drives
type DatabaseMaintainer interface {
	WALCheckpoint(mode string) error
	QuickCheck(ctx context.Context) error
}

// RunPruner removes derivation run telemetry older than the window
type RunPruner interface {
	Prune(olderThan time.Duration) (int64, error)
}

// DeriveAllJob re-derives every user's ledger on schedule so books
// stay current as new transactions arrive
type DeriveAllJob struct {
	deriver LedgerDeriver
	log     zerolog.Logger
}

// NewDeriveAllJob creates a new derive-all job
func NewDeriveAllJob(deriver LedgerDeriver, log zerolog.Logger) *DeriveAllJob {
	return &DeriveAllJob{
		deriver: deriver,
		log:     log.With().Str("job", "derive_all").Logger(),
	}
}

// Name returns the job name
func (j *DeriveAllJob) Name() string { return "ledger_derive_all" }

// Run derives every user's ledger
func (j *DeriveAllJob) Run() error {
	reports, err := j.deriver.DeriveAll()
	if err != nil {
		return err
	}
	j.log.Info().Int("users", len(reports)).Msg("Scheduled derivation completed")
	return nil
}

// MaintenanceJob checkpoints the WAL and integrity-checks the
// databases
type MaintenanceJob struct {
	databases []DatabaseMaintainer
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases []DatabaseMaintainer, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string { return "database_maintenance" }

// Run checkpoints and checks each database; a failure on one database
// does not stop the others
func (j *MaintenanceJob) Run() error {
	var lastErr error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Msg("WAL checkpoint failed")
			lastErr = err
		}
		if err := db.QuickCheck(context.Background()); err != nil {
			j.log.Error().Err(err).Msg("Quick check failed")
			lastErr = err
		}
	}
	return lastErr
}

// PruneRunsJob trims old derivation run telemetry from the cache
// database
type PruneRunsJob struct {
	pruner    RunPruner
	retention time.Duration
	log       zerolog.Logger
}

// NewPruneRunsJob creates a new prune job
func NewPruneRunsJob(pruner RunPruner, retention time.Duration, log zerolog.Logger) *PruneRunsJob {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &PruneRunsJob{
		pruner:    pruner,
		retention: retention,
		log:       log.With().Str("job", "prune_runs").Logger(),
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string { return "prune_derivation_runs" }

// Run deletes runs older than the retention window
func (j *PruneRunsJob) Run() error {
	deleted, err := j.pruner.Prune(j.retention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Pruned old derivation runs")
	}
	return nil
}
