package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quantbrief/oracle/internal/models"
	"github.com/quantbrief/oracle/internal/storage"
)

// Handlers holds the API handlers.
type Handlers struct {
	store *storage.Store
}

// NewHandlers creates new API handlers.
func NewHandlers(store *storage.Store) *Handlers {
	return &Handlers{store: store}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requireStore guards report reads when running without MongoDB.
func (h *Handlers) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Report store not available")
		return false
	}
	return true
}

func getLimit(r *http.Request, defaultLimit int) int {
	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}

// validReportType guards the path parameter before it reaches Mongo.
func validReportType(s string) bool {
	switch models.ReportType(s) {
	case models.ReportDaily, models.ReportWeekly, models.ReportResearch:
		return true
	}
	return false
}

// ============================================================================
// REPORT HANDLERS
// ============================================================================

// GetRecentReports returns the most recent reports across all types.
func (h *Handlers) GetRecentReports(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := getLimit(r, 20)

	reports, err := h.store.GetRecentReports(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetReportsByType returns recent reports of one type.
func (h *Handlers) GetReportsByType(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	reportType := chi.URLParam(r, "type")
	if !validReportType(reportType) {
		respondError(w, http.StatusBadRequest, "Unknown report type: "+reportType)
		return
	}
	limit := getLimit(r, 20)

	reports, err := h.store.GetReportsByType(r.Context(), models.ReportType(reportType), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"type":    reportType,
		"count":   len(reports),
	})
}

// GetReport returns a single report by type and date.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	reportType := chi.URLParam(r, "type")
	date := chi.URLParam(r, "date")

	if !validReportType(reportType) {
		respondError(w, http.StatusBadRequest, "Unknown report type: "+reportType)
		return
	}

	report, err := h.store.GetReport(r.Context(), models.ReportType(reportType), date)
	if err != nil {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ============================================================================
// HEALTH & STATS
// ============================================================================

// HealthCheck returns service health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "oracle",
	})
}

// GetStats returns report statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
