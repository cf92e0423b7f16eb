// Package handlers provides HTTP handlers for credit score endpoints.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/modules/creditscore"
)

// Handler provides HTTP handlers for the credit score estimator
type Handler struct {
	service *creditscore.Service
	log     zerolog.Logger
}

// NewHandler creates a new credit score handler
func NewHandler(service *creditscore.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "creditscore").Logger(),
	}
}

// RegisterRoutes registers credit score routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{userID}/credit-score", func(r chi.Router) {
		r.Get("/", h.HandleEstimate)
		r.Post("/snapshots", h.HandleSnapshot)
		r.Get("/snapshots", h.HandleHistory)
	})
}

// HandleEstimate handles GET /api/users/{userID}/credit-score.
// Computes the score from live data without persisting anything.
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Estimate(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to estimate credit score")
		http.Error(w, "Failed to estimate credit score", http.StatusInternalServerError)
		return
	}

	writeData(w, h.log, http.StatusOK, result)
}

// HandleSnapshot handles POST /api/users/{userID}/credit-score/snapshots.
// Computes the score and appends it to the user's history.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "User ID is required", http.StatusBadRequest)
		return
	}

	saved, err := h.service.EstimateAndSave(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to save credit score snapshot")
		http.Error(w, "Failed to save credit score snapshot", http.StatusInternalServerError)
		return
	}

	writeData(w, h.log, http.StatusCreated, saved)
}

// HandleHistory handles GET /api/users/{userID}/credit-score/snapshots
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
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

	history, err := h.service.History(userID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to load credit score history")
		http.Error(w, "Failed to load credit score history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []creditscore.SavedScore{}
	}

	writeData(w, h.log, http.StatusOK, history)
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
