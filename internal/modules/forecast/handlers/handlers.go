// Package handlers provides HTTP handlers for cash flow forecasts.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/modules/books"
	"github.com/quillbooks/quill/internal/modules/forecast"
)

// Handler handles forecast HTTP requests
type Handler struct {
	forecaster   *forecast.Forecaster
	transactions *books.TransactionRepository
	log          zerolog.Logger
}

// NewHandler creates a new forecast handler
func NewHandler(forecaster *forecast.Forecaster, transactions *books.TransactionRepository, log zerolog.Logger) *Handler {
	return &Handler{
		forecaster:   forecaster,
		transactions: transactions,
		log:          log.With().Str("handler", "forecast").Logger(),
	}
}

// RegisterRoutes registers forecast routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast", h.HandleForecast)
}

// HandleForecast handles GET /api/forecast
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	profileID := r.URL.Query().Get("profile_id")
	if userID == "" || profileID == "" {
		http.Error(w, "user_id and profile_id are required", http.StatusBadRequest)
		return
	}

	months := 3
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 24 {
			http.Error(w, "months must be between 1 and 24", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	txs, err := h.transactions.ListByPartition(domain.Partition{UserID: userID, ProfileID: profileID})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load transactions for forecast")
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	result := h.forecaster.Forecast(txs, months)
	writeData(w, h.log, http.StatusOK, result)
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
