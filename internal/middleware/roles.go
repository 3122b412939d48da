package middleware

import (
	"net/http"

	"github.com/colectra/backend/internal/contextkeys"
	"github.com/colectra/backend/internal/handler"
)

// RequireRole restricts a route to users holding one of the given roles.
// Must run after Auth.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(contextkeys.UserRole).(string)
			if !ok || !allowed[role] {
				handler.JSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
