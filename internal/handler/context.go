package handler

import (
	"net/http"

	"github.com/colectra/backend/internal/contextkeys"
)

// userID returns the authenticated user's ID from the request context. The
// Auth middleware guarantees it is set on protected routes.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(contextkeys.UserID).(string)
	return id
}

func userRole(r *http.Request) string {
	role, _ := r.Context().Value(contextkeys.UserRole).(string)
	return role
}
