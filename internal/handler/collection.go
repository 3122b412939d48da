package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// CollectionHandler handles collection round and scan HTTP endpoints.
type CollectionHandler struct {
	collections *service.CollectionService
	agencies    *service.AgencyService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collections *service.CollectionService, agencies *service.AgencyService) *CollectionHandler {
	return &CollectionHandler{collections: collections, agencies: agencies}
}

func (h *CollectionHandler) ownedAgency(w http.ResponseWriter, r *http.Request) (*domain.Agency, bool) {
	agency, err := h.agencies.RequireOwner(r.Context(), chi.URLParam(r, "agencyID"), userID(r), userRole(r))
	if err != nil {
		Error(w, err)
		return nil, false
	}
	return agency, true
}

// ScheduleRound handles POST /api/agencies/{agencyID}/rounds (owner).
func (h *CollectionHandler) ScheduleRound(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.ownedAgency(w, r)
	if !ok {
		return
	}

	var req domain.CreateRoundRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	round, err := h.collections.ScheduleRound(r.Context(), agency.ID, &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, round)
}

// ListRounds handles GET /api/agencies/{agencyID}/rounds (owner).
func (h *CollectionHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.ownedAgency(w, r)
	if !ok {
		return
	}

	rounds, err := h.collections.ListRounds(r.Context(), agency.ID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, rounds)
}

// StartRound handles POST /api/agencies/{agencyID}/rounds/{roundID}/start (owner).
func (h *CollectionHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.ownedAgency(w, r)
	if !ok {
		return
	}

	round, err := h.collections.StartRound(r.Context(), agency.ID, chi.URLParam(r, "roundID"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, round)
}

// RecordScan handles POST /api/rounds/{roundID}/scans. Called by collectors
// in the field after scanning a client's QR sticker.
func (h *CollectionHandler) RecordScan(w http.ResponseWriter, r *http.Request) {
	var req domain.ScanRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	scan, err := h.collections.RecordScan(r.Context(), userID(r), chi.URLParam(r, "roundID"), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, scan)
}

// ListScans handles GET /api/agencies/{agencyID}/rounds/{roundID}/scans (owner).
func (h *CollectionHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	agency, ok := h.ownedAgency(w, r)
	if !ok {
		return
	}

	scans, err := h.collections.ListScans(r.Context(), agency.ID, chi.URLParam(r, "roundID"))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, scans)
}
