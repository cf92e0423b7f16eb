package creditscore

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/events"
	"github.com/quillbooks/quill/internal/modules/books"
)

// Service loads a user's live data, computes their score, and
// optionally persists the result as a snapshot
type Service struct {
	transactions *books.TransactionRepository
	debts        *books.DebtRepository
	recurring    *books.RecurringChargeRepository
	repo         *Repository
	eventManager *events.Manager
	log          zerolog.Logger
	now          func() time.Time
}

// NewService creates a new credit score service
func NewService(
	transactions *books.TransactionRepository,
	debts *books.DebtRepository,
	recurring *books.RecurringChargeRepository,
	repo *Repository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		debts:        debts,
		recurring:    recurring,
		repo:         repo,
		eventManager: eventManager,
		log:          log.With().Str("service", "creditscore").Logger(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Estimate computes the user's score from their current data.
// Any load failure is surfaced as an error, never as a made-up score.
func (s *Service) Estimate(userID string) (*Result, error) {
	snapshot, err := s.loadSnapshot(userID)
	if err != nil {
		return nil, err
	}

	result := Compute(*snapshot)

	if s.eventManager != nil {
		s.eventManager.EmitTyped("creditscore", &events.CreditScoreComputedData{
			UserID: userID,
			Rating: result.Rating,
			Score:  result.Score,
		})
	}

	s.log.Debug().
		Str("user_id", userID).
		Int("score", result.Score).
		Str("rating", result.Rating).
		Msg("Credit score computed")

	return &result, nil
}

// EstimateAndSave computes the score and appends it to the user's
// snapshot history
func (s *Service) EstimateAndSave(userID string) (*SavedScore, error) {
	result, err := s.Estimate(userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(userID, *result)
	if err != nil {
		return nil, err
	}

	if s.eventManager != nil {
		s.eventManager.Emit(events.CreditScoreSnapshotSaved, "creditscore", map[string]interface{}{
			"user_id":     userID,
			"snapshot_id": saved.ID,
			"score":       saved.Score,
			"rating":      saved.Rating,
		})
	}
	return saved, nil
}

// History returns the user's persisted snapshots, newest first
func (s *Service) History(userID string, limit int) ([]SavedScore, error) {
	return s.repo.History(userID, limit)
}

func (s *Service) loadSnapshot(userID string) (*Snapshot, error) {
	txs, err := s.transactions.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	debts, err := s.debts.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load debts: %w", err)
	}
	charges, err := s.recurring.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring charges: %w", err)
	}

	return &Snapshot{
		Now:              s.now(),
		Transactions:     txs,
		Debts:            debts,
		RecurringCharges: charges,
	}, nil
}
