// Package dErrors provides coded domain errors shared across services.
//
// Stores return infrastructure sentinels (pkg/platform/sentinel); services
// translate those into coded errors with New/Wrap; the HTTP layer maps codes
// to status codes via pkg/platform/httputil. Codes are the only part of an
// error that crosses the API boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error. Message is safe to log; whether it is safe
// to return to clients depends on the code (internal errors are masked at the
// HTTP boundary).
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match two coded errors by code and message, so tests can
// compare against a freshly constructed expectation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is/errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.cause
		if err == nil {
			break
		}
		domainErr = nil
	}
	return false
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
