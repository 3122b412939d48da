package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
)

// ClientHandler handles client-profile HTTP endpoints.
type ClientHandler struct {
	clients *service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// Enroll handles POST /api/clients.
func (h *ClientHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req domain.EnrollClientRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	client, err := h.clients.Enroll(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, client)
}

// Me handles GET /api/clients/me.
func (h *ClientHandler) Me(w http.ResponseWriter, r *http.Request) {
	client, err := h.clients.GetByUser(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, client)
}

// Update handles PUT /api/clients/me.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateClientRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	client, err := h.clients.Update(r.Context(), userID(r), &req)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, client)
}

// History handles GET /api/clients/me/history.
func (h *ClientHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.clients.History(r.Context(), userID(r))
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, entries)
}
