// Package apperror is the canonical error taxonomy. Internal failures are
// translated here into client-safe responses: validation and authorization
// failures keep their specific reason, storage and unexpected failures are
// logged in full server-side and down-leveled to a generic message.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lib/pq"
)

// Kind classifies an error for HTTP translation.
type Kind int

const (
	KindBadRequest   Kind = iota // malformed input/file/format, message safe to show
	KindAuthError                // credential mismatch or disabled account
	KindUnauthorized             // missing/invalid/expired token
	KindForbidden                // authenticated but not permitted
	KindStorage                  // backing-store error, client sees generic message
	KindInternal                 // unexpected, client sees generic message
)

// Error carries a kind, a client-facing message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest builds a client-visible validation error.
func BadRequest(msg string) *Error { return &Error{Kind: KindBadRequest, Message: msg} }

// Auth builds a login failure. Messages must not leak account existence.
func Auth(msg string) *Error { return &Error{Kind: KindAuthError, Message: msg} }

// Unauthorized builds a missing/invalid token error.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden builds a permission denial with a human-readable reason.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// Storage wraps a backing-store error. A unique violation on the users email
// column is special-cased to a friendly message rather than a generic one.
func Storage(err error) *Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "users_email_key" {
			return &Error{Kind: KindBadRequest, Message: "email already registered", Err: err}
		}
	}
	return &Error{Kind: KindStorage, Message: "internal error", Err: err}
}

// Internal wraps an unexpected error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// status maps a kind to its HTTP status code.
func (k Kind) status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindAuthError, KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Write renders err as a JSON error response. Non-*Error values are treated
// as internal. Storage and internal causes are logged with full detail; the
// client only ever sees the safe message.
func Write(w http.ResponseWriter, log *slog.Logger, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}

	if appErr.Kind == KindStorage || appErr.Kind == KindInternal {
		log.Error("request failed",
			slog.Int("status", appErr.Kind.status()),
			slog.String("error", appErr.Error()),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.status())
	json.NewEncoder(w).Encode(errorResponse{Error: appErr.Message})
}
