package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles notification HTTP endpoints.
type NotificationHandler struct {
	notifs *repository.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifs *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifs: notifs}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifs, err := h.notifs.ListByUser(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, notifs)
}

// MarkRead handles POST /api/notifications/{notificationID}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifs.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), userID(r)); err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}
