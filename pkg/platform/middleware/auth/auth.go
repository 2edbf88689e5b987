// Package auth is the single session decoder for the service: it validates
// the bearer token once per request and injects a normalized Principal into
// the context. Handlers and services never parse tokens themselves.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"toolgate/pkg/domain"
	request "toolgate/pkg/platform/middleware/request"
	"toolgate/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the claims carried in it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims are the token claims the session decoder consumes.
type Claims struct {
	UserID     string
	Email      string
	Role       string
	ExternalID string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// normalized Principal {ID, Email, Role, ExternalID} into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			userID, err := domain.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed user id claim",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			role, err := domain.ParseRole(claims.Role)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - unknown role claim",
					"role", claims.Role,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			principal := domain.Principal{
				ID:         userID,
				Email:      claims.Email,
				Role:       role,
				ExternalID: claims.ExternalID,
			}

			ctx = requestcontext.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
