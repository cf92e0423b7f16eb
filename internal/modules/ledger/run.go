// Package ledger orchestrates full ledger derivation: chart of
// accounts, journal entries, and monthly reconciliations for every
// profile a user owns, processed sequentially.
package ledger

import (
	"time"

	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
)

// PartitionReport is the outcome of deriving one profile's ledger
type PartitionReport struct {
	ProfileID       string                     `json:"profile_id"`
	SkipReason      string                     `json:"skip_reason,omitempty"`
	Accounts        accounts.BuildReport       `json:"accounts"`
	Journal         journal.BuildReport        `json:"journal"`
	Reconciliations reconciliation.BuildReport `json:"reconciliations"`
	Skipped         bool                       `json:"skipped"`
}

// RunReport is the aggregate outcome of one derivation run for a user
type RunReport struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	RunID      string            `json:"run_id"`
	UserID     string            `json:"user_id"`
	Partitions []PartitionReport `json:"partitions"`
}

// AccountsCreated totals created accounts across all partitions
func (r RunReport) AccountsCreated() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Accounts.Created
	}
	return total
}

// AccountsSkipped totals skipped accounts across all partitions
func (r RunReport) AccountsSkipped() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Accounts.Skipped
	}
	return total
}

// EntriesCreated totals created journal entries across all partitions
func (r RunReport) EntriesCreated() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Journal.Created
	}
	return total
}

// EntriesSkipped totals skipped journal entries across all partitions
func (r RunReport) EntriesSkipped() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Journal.Skipped
	}
	return total
}

// ReconciliationsCreated totals created reconciliation rows
func (r RunReport) ReconciliationsCreated() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Reconciliations.Created
	}
	return total
}

// ReconciliationsSkipped totals skipped reconciliation rows
func (r RunReport) ReconciliationsSkipped() int {
	total := 0
	for _, p := range r.Partitions {
		total += p.Reconciliations.Skipped
	}
	return total
}

// PartitionsProcessed counts partitions that derived successfully
func (r RunReport) PartitionsProcessed() int {
	total := 0
	for _, p := range r.Partitions {
		if !p.Skipped {
			total++
		}
	}
	return total
}

// PartitionsSkipped counts partitions skipped for missing prerequisites
func (r RunReport) PartitionsSkipped() int {
	return len(r.Partitions) - r.PartitionsProcessed()
}
