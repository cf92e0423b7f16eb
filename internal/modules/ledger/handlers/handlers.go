// Package handlers provides HTTP handlers for ledger derivation and
// the derived artifacts it produces.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/modules/accounts"
	"github.com/quillbooks/quill/internal/modules/journal"
	"github.com/quillbooks/quill/internal/modules/ledger"
	"github.com/quillbooks/quill/internal/modules/reconciliation"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service  *ledger.Service
	accounts *accounts.Repository
	journal  *journal.Repository
	recons   *reconciliation.Repository
	log      zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(
	service *ledger.Service,
	accounts *accounts.Repository,
	journal *journal.Repository,
	recons *reconciliation.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:  service,
		accounts: accounts,
		journal:  journal,
		recons:   recons,
		log:      log.With().Str("handler", "ledger").Logger(),
	}
}

type deriveRequest struct {
	UserID string `json:"user_id"`
}

// HandleDerive handles POST /api/ledger/derive
func (h *Handler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	report, err := h.service.Derive(req.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Derivation failed")
		http.Error(w, "Derivation failed", http.StatusInternalServerError)
		return
	}

	writeData(w, h.log, http.StatusOK, report)
}

// HandleGetAccounts handles GET /api/ledger/accounts
func (h *Handler) HandleGetAccounts(w http.ResponseWriter, r *http.Request) {
	p, ok := partitionFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.accounts.ListByPartition(p)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []domain.Account{}
	}
	writeData(w, h.log, http.StatusOK, result)
}

// HandleGetJournalEntries handles GET /api/ledger/journal-entries
func (h *Handler) HandleGetJournalEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := partitionFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.journal.ListByPartition(p)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list journal entries")
		http.Error(w, "Failed to list journal entries", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []domain.JournalEntry{}
	}
	writeData(w, h.log, http.StatusOK, result)
}

// HandleGetReconciliations handles GET /api/ledger/reconciliations
func (h *Handler) HandleGetReconciliations(w http.ResponseWriter, r *http.Request) {
	p, ok := partitionFromQuery(w, r)
	if !ok {
		return
	}

	result, err := h.recons.ListByPartition(p)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reconciliations")
		http.Error(w, "Failed to list reconciliations", http.StatusInternalServerError)
		return
	}
	if result == nil {
		result = []domain.Reconciliation{}
	}
	writeData(w, h.log, http.StatusOK, result)
}

// HandleGetRuns handles GET /api/ledger/runs/{userID}
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	runs, err := h.service.RunHistory(userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list derivation runs")
		http.Error(w, "Failed to list derivation runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []ledger.RunReport{}
	}
	writeData(w, h.log, http.StatusOK, runs)
}

func partitionFromQuery(w http.ResponseWriter, r *http.Request) (domain.Partition, bool) {
	userID := r.URL.Query().Get("user_id")
	profileID := r.URL.Query().Get("profile_id")
	if userID == "" || profileID == "" {
		http.Error(w, "user_id and profile_id are required", http.StatusBadRequest)
		return domain.Partition{}, false
	}
	return domain.Partition{UserID: userID, ProfileID: profileID}, true
}

func writeData(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
