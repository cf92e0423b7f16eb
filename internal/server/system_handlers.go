package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/quillbooks/quill/internal/database"
)

// SystemHandlers serves system monitoring endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	startedAt time.Time
	booksDB   *database.DB
	cacheDB   *database.DB
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, startedAt time.Time, booksDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		startedAt: startedAt,
		booksDB:   booksDB,
		cacheDB:   cacheDB,
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	databases := map[string]string{}
	for name, db := range map[string]*database.DB{"books": h.booksDB, "cache": h.cacheDB} {
		if db == nil {
			continue
		}
		status := "ok"
		if err := db.QuickCheck(r.Context()); err != nil {
			status = "error"
			h.log.Warn().Err(err).Str("database", name).Msg("Database quick check failed")
		}
		databases[name] = status
	}

	h.writeJSON(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"cpu_percent":    cpuPercent,
		"ram_percent":    ramPercent,
		"databases":      databases,
	})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}

	if h.booksDB != nil {
		stats["books"] = h.tableCounts(h.booksDB, []string{
			"business_profiles", "transactions", "categories",
			"chart_of_accounts", "journal_entries", "journal_entry_lines",
			"reconciliations", "credit_scores",
		})
	}
	if h.cacheDB != nil {
		stats["cache"] = h.tableCounts(h.cacheDB, []string{"derivation_runs"})
	}

	h.writeJSON(w, stats)
}

func (h *SystemHandlers) tableCounts(db *database.DB, tables []string) map[string]int64 {
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			h.log.Warn().Err(err).Str("table", table).Msg("Failed to count rows")
			continue
		}
		counts[table] = count
	}
	return counts
}

// getSystemStats returns CPU and RAM usage percentages. The short CPU
// sampling interval keeps the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
