// Package admin guards curation endpoints behind the admin roles.
package admin

import (
	"log/slog"
	"net/http"

	request "toolgate/pkg/platform/middleware/request"
	"toolgate/pkg/requestcontext"
)

// RequireAdmin rejects requests whose principal does not carry an admin role.
// Must be mounted after auth.RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := requestcontext.Principal(ctx)
			if !ok || !principal.Role.IsAdmin() {
				requestID := request.GetRequestID(ctx)
				logger.WarnContext(ctx, "admin access denied",
					"request_id", requestID,
					"role", principal.Role,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
