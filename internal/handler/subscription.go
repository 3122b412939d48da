package handler

import (
	"net/http"
	"strconv"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler handles subscription HTTP endpoints.
type SubscriptionHandler struct {
	subs *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// subjectUser resolves the {userID} path param and checks the caller may act
// on that user's subscriptions: themselves, or an admin.
func subjectUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := chi.URLParam(r, "userID")
	if target != userID(r) && userRole(r) != domain.RoleAdmin {
		Error(w, domain.ErrForbidden("cannot act on another user's subscriptions"))
		return "", false
	}
	return target, true
}

// Create handles POST /api/subscriptions/{userID}/{tariffID}/{months}.
// Payment is taken from the subject user's wallet.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	target, ok := subjectUser(w, r)
	if !ok {
		return
	}
	months, err := strconv.Atoi(chi.URLParam(r, "months"))
	if err != nil {
		Error(w, domain.ErrBadRequest("invalid number of months"))
		return
	}

	sub, err := h.subs.Create(r.Context(), target, chi.URLParam(r, "tariffID"), months)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "subscription created",
		"subscription": sub,
	})
}

// ListByUser handles GET /api/subscriptions/user/{userID}.
func (h *SubscriptionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	target, ok := subjectUser(w, r)
	if !ok {
		return
	}

	subs, err := h.subs.ListByUser(r.Context(), target)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, subs)
}

// ListAll handles GET /api/subscriptions (admin).
func (h *SubscriptionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListAll(r.Context())
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, subs)
}
