// Package httputil centralizes JSON encoding and error mapping for handlers.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "toolgate/pkg/domain-errors"
)

// errorResponse is the uniform error envelope returned to clients.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// statusForCode maps domain error codes to HTTP status codes.
func statusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to an HTTP error response. Internal and
// invariant errors are masked: the client sees only the code, never the
// message, so store/provider details cannot leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}

	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		// Mask detail.
	default:
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			resp.ErrorDescription = domainErr.Message
		}
	}

	WriteJSON(w, statusForCode(code), resp)
}

// DecodeAndPrepare decodes a JSON request body into T, writing a bad_request
// response and logging on failure. Returns the decoded value and whether
// decoding succeeded.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		var zero T
		return zero, false
	}
	return req, true
}
