package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seblak-bageur/api/internal/service"
)

// ReportHandler handles read-only sales report endpoints.
type ReportHandler struct {
	service *service.ReportService
	loc     *time.Location
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc *service.ReportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{service: svc, loc: loc}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /api/reports.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
}

// Daily returns the sales aggregate for one calendar day. Defaults to
// today (store timezone) when ?date= is absent.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day := time.Now().In(h.loc)

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	report, err := h.service.DailyReport(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: daily report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, report)
}
