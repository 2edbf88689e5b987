// Package request assigns a correlation ID to every incoming request.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"toolgate/pkg/requestcontext"
)

const headerRequestID = "X-Request-ID"

// Middleware ensures every request carries a request ID, honoring one
// supplied by the caller and minting one otherwise. The ID is echoed back in
// the response header for client-side correlation.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
