package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// AgencyHandler handles agency management HTTP endpoints.
type AgencyHandler struct {
	agencies *service.AgencyService
	reports  *service.ReportService
}

// NewAgencyHandler creates a new AgencyHandler.
func NewAgencyHandler(agencies *service.AgencyService, reports *service.ReportService) *AgencyHandler {
	return &AgencyHandler{agencies: agencies, reports: reports}
}

// Create handles POST /api/agencies.
func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAgencyRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	agency, err := h.agencies.Create(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, agency)
}

// List handles GET /api/agencies. Public directory of agencies.
func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.agencies.List(r.Context())
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, agencies)
}

// Get handles GET /api/agencies/{agencyID}.
func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	agency, err := h.agencies.Get(r.Context(), chi.URLParam(r, "agencyID"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, agency)
}

// owned resolves the agency from the URL and checks the caller owns it.
func (h *AgencyHandler) owned(w http.ResponseWriter, r *http.Request) (*domain.Agency, bool) {
	agency, err := h.agencies.RequireOwner(r.Context(), chi.URLParam(r, "agencyID"), userID(r), userRole(r))
	if err != nil {
		Error(w, err)
		return nil, false
	}
	return agency, true
}

// CreateZone handles POST /api/agencies/{agencyID}/zones (owner).
func (h *AgencyHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req domain.CreateZoneRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	zone, err := h.agencies.CreateZone(r.Context(), agency.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, zone)
}

// ListZones handles GET /api/agencies/{agencyID}/zones.
func (h *AgencyHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.agencies.ListZones(r.Context(), chi.URLParam(r, "agencyID"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, zones)
}

// HireEmployee handles POST /api/agencies/{agencyID}/employees (owner).
func (h *AgencyHandler) HireEmployee(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req domain.CreateEmployeeRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	employee, err := h.agencies.HireEmployee(r.Context(), agency.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, employee)
}

// ListEmployees handles GET /api/agencies/{agencyID}/employees (owner).
func (h *AgencyHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	employees, err := h.agencies.ListEmployees(r.Context(), agency.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, employees)
}

// employeeActiveRequest toggles an employee's active flag.
type employeeActiveRequest struct {
	Active bool `json:"active"`
}

// SetEmployeeActive handles PATCH /api/agencies/{agencyID}/employees/{employeeID} (owner).
func (h *AgencyHandler) SetEmployeeActive(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req employeeActiveRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	if err := h.agencies.SetEmployeeActive(r.Context(), agency.ID, chi.URLParam(r, "employeeID"), req.Active); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "employee updated"})
}

// PublishTariff handles POST /api/agencies/{agencyID}/tariffs (owner).
func (h *AgencyHandler) PublishTariff(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req domain.CreateTariffRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	tariff, err := h.agencies.PublishTariff(r.Context(), agency.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, tariff)
}

// ListTariffs handles GET /api/agencies/{agencyID}/tariffs. Public so
// clients can compare offers.
func (h *AgencyHandler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	tariffs, err := h.agencies.ListTariffs(r.Context(), chi.URLParam(r, "agencyID"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, tariffs)
}

// ListClients handles GET /api/agencies/{agencyID}/clients (owner).
func (h *AgencyHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	clients, err := h.agencies.ListClients(r.Context(), agency.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, clients)
}

// ListReports handles GET /api/agencies/{agencyID}/reports (owner).
func (h *AgencyHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	reports, err := h.reports.ListByAgency(r.Context(), agency.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, reports)
}

// UpdateReportStatus handles PATCH /api/agencies/{agencyID}/reports/{reportID} (owner).
func (h *AgencyHandler) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req domain.UpdateReportStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	report, err := h.reports.UpdateStatus(r.Context(), agency.ID, chi.URLParam(r, "reportID"), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, report)
}
