package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/derive", h.HandleDerive)
		r.Get("/accounts", h.HandleGetAccounts)
		r.Get("/journal-entries", h.HandleGetJournalEntries)
		r.Get("/reconciliations", h.HandleGetReconciliations)
		r.Get("/runs/{userID}", h.HandleGetRuns)
	})
}
