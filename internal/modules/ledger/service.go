package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/books"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
	"github.com/quillbooks/quill/internal/utils"
)

// Service runs the full derivation pipeline for a user. Partitions are
// processed strictly sequentially: the per-user entry number sequence
// and the running balance are shared state across the loop.
type Service struct {
	profiles        *books.ProfileRepository
	transactions    *books.TransactionRepository
	categories      *books.CategoryRepository
	accountsBuilder *accounts.Builder
	journalBuilder  *journal.Builder
	reconBuilder    *reconciliation.Builder
	runs            *RunRepository
	eventManager    *events.Manager
	log             zerolog.Logger
}

// NewService creates a new ledger derivation service
func NewService(
	profiles *books.ProfileRepository,
	transactions *books.TransactionRepository,
	categories *books.CategoryRepository,
	accountsBuilder *accounts.Builder,
	journalBuilder *journal.Builder,
	reconBuilder *reconciliation.Builder,
	runs *RunRepository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		profiles:        profiles,
		transactions:    transactions,
		categories:      categories,
		accountsBuilder: accountsBuilder,
		journalBuilder:  journalBuilder,
		reconBuilder:    reconBuilder,
		runs:            runs,
		eventManager:    eventManager,
		log:             log.With().Str("service", "ledger").Logger(),
	}
}

// Derive runs accounts, journal, and reconciliation derivation for
// every profile the user owns. A partition missing its prerequisites
// is skipped and counted; other partitions still derive.
func (s *Service) Derive(userID string) (*RunReport, error) {
	timer := utils.NewTimer("ledger_derive", s.log)
	defer timer.Stop()

	report := &RunReport{
		RunID:     uuid.New().String(),
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}

	if s.eventManager != nil {
		s.eventManager.Emit(events.LedgerDeriveStarted, "ledger", map[string]interface{}{
			"run_id":  report.RunID,
			"user_id": userID,
		})
	}

	profiles, err := s.profiles.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for user %s: %w", userID, err)
	}

	for _, profile := range profiles {
		report.Partitions = append(report.Partitions, s.derivePartition(profile.Partition()))
	}

	report.FinishedAt = time.Now().UTC()

	if err := s.runs.Save(*report); err != nil {
		// The derivation itself succeeded; losing the telemetry row is
		// not a reason to report failure
		s.log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to persist derivation run")
	}

	if s.eventManager != nil {
		s.eventManager.EmitTyped("ledger", &events.LedgerDerivedData{
			RunID:               report.RunID,
			UserID:              userID,
			AccountsCreated:     report.AccountsCreated(),
			EntriesCreated:      report.EntriesCreated(),
			Reconciliations:     report.ReconciliationsCreated(),
			PartitionsProcessed: report.PartitionsProcessed(),
			PartitionsSkipped:   report.PartitionsSkipped(),
		})
	}

	s.log.Info().
		Str("run_id", report.RunID).
		Str("user_id", userID).
		Int("accounts_created", report.AccountsCreated()).
		Int("entries_created", report.EntriesCreated()).
		Int("reconciliations_created", report.ReconciliationsCreated()).
		Int("partitions_processed", report.PartitionsProcessed()).
		Int("partitions_skipped", report.PartitionsSkipped()).
		Msg("Ledger derivation finished")

	return report, nil
}

// DeriveAll derives the ledger for every user with a profile on record
func (s *Service) DeriveAll() ([]RunReport, error) {
	userIDs, err := s.profiles.DistinctUserIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var reports []RunReport
	for _, userID := range userIDs {
		report, err := s.Derive(userID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("Derivation failed for user, continuing")
			if s.eventManager != nil {
				s.eventManager.EmitError("ledger", err, map[string]interface{}{"user_id": userID})
			}
			continue
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// RunHistory returns a user's recent derivation runs
func (s *Service) RunHistory(userID string, limit int) ([]RunReport, error) {
	return s.runs.ListByUser(userID, limit)
}

func (s *Service) derivePartition(p domain.Partition) PartitionReport {
	result := PartitionReport{ProfileID: p.ProfileID}

	categories, err := s.categories.ListByPartition(p)
	if err != nil {
		return s.skipPartition(p, result, fmt.Errorf("failed to list categories: %w", err))
	}

	result.Accounts, err = s.accountsBuilder.Build(p, categories)
	if err != nil {
		return s.skipPartition(p, result, fmt.Errorf("failed to derive accounts: %w", err))
	}
	s.emitStage(events.AccountsDerived, p, map[string]interface{}{
		"created": result.Accounts.Created,
		"skipped": result.Accounts.Skipped,
	})

	txs, err := s.transactions.ListByPartition(p)
	if err != nil {
		return s.skipPartition(p, result, fmt.Errorf("failed to list transactions: %w", err))
	}

	result.Journal, err = s.journalBuilder.Build(p, txs)
	if err != nil {
		if errors.Is(err, journal.ErrNoCashAccount) {
			return s.skipPartition(p, result, err)
		}
		return s.skipPartition(p, result, fmt.Errorf("failed to derive journal: %w", err))
	}
	s.emitStage(events.JournalEntriesPosted, p, map[string]interface{}{
		"created":    result.Journal.Created,
		"duplicates": result.Journal.Duplicates,
		"skipped":    result.Journal.Skipped,
	})

	result.Reconciliations, err = s.reconBuilder.Build(p, txs)
	if err != nil {
		return s.skipPartition(p, result, fmt.Errorf("failed to derive reconciliations: %w", err))
	}
	s.emitStage(events.ReconciliationsUpdated, p, map[string]interface{}{
		"created": result.Reconciliations.Created,
		"updated": result.Reconciliations.Updated,
		"skipped": result.Reconciliations.Skipped,
	})

	return result
}

func (s *Service) emitStage(eventType events.EventType, p domain.Partition, data map[string]interface{}) {
	if s.eventManager == nil {
		return
	}
	data["user_id"] = p.UserID
	data["profile_id"] = p.ProfileID
	s.eventManager.Emit(eventType, "ledger", data)
}

func (s *Service) skipPartition(p domain.Partition, result PartitionReport, reason error) PartitionReport {
	result.Skipped = true
	result.SkipReason = reason.Error()

	s.log.Warn().
		Str("user_id", p.UserID).
		Str("profile_id", p.ProfileID).
		Err(reason).
		Msg("Skipping partition")

	if s.eventManager != nil {
		s.eventManager.EmitTyped("ledger", &events.PartitionSkippedData{
			UserID:    p.UserID,
			ProfileID: p.ProfileID,
			Reason:    reason.Error(),
		})
	}
	return result
}
