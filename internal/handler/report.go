package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
)

// ReportHandler handles report-filing HTTP endpoints. Agency-side report
// management lives on AgencyHandler.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create handles POST /api/reports.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReportRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	report, err := h.reports.Create(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, report)
}
