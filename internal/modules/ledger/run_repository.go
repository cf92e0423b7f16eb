package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RunRepository records derivation runs in cache.db. Run history is
// operational telemetry, kept out of the books database so it can be
// wiped without touching financial records.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "derivation_runs").Logger(),
	}
}

// Save records a completed run
func (r *RunRepository) Save(report RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO derivation_runs (id, user_id, started_at, finished_at, accounts_created, accounts_skipped, entries_created, entries_skipped, reconciliations_created, reconciliations_skipped, partitions_processed, partitions_skipped, report_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.UserID, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		report.AccountsCreated(), report.AccountsSkipped(),
		report.EntriesCreated(), report.EntriesSkipped(),
		report.ReconciliationsCreated(), report.ReconciliationsSkipped(),
		report.PartitionsProcessed(), report.PartitionsSkipped(),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert derivation run: %w", err)
	}
	return nil
}

// ListByUser returns a user's run history, newest first
func (r *RunRepository) ListByUser(userID string, limit int) ([]RunReport, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT report_json FROM derivation_runs
		 WHERE user_id = ?
		 ORDER BY started_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query derivation runs: %w", err)
	}
	defer rows.Close()

	var reports []RunReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan derivation run row: %w", err)
		}
		var report RunReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			r.log.Warn().Err(err).Msg("Skipping unreadable run report")
			continue
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// Prune deletes runs older than the retention window
func (r *RunRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Unix()
	result, err := r.db.Exec(`DELETE FROM derivation_runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune derivation runs: %w", err)
	}
	return result.RowsAffected()
}
