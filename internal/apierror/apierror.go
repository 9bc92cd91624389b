// Package apierror provides the error taxonomy shared by services and handlers,
// plus the JSON envelope written for every 4xx/5xx response.
// Internal details (DB errors, stack traces) never reach the client: only the
// classification and a human-readable message do.
package apierror

import (
	"errors"
	"net/http"
)

// Kind is the stable classification of a failure.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindDependency   Kind = "dependency_failure"
	KindInternal     Kind = "internal"
)

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can test errors.Is(err, apierror.ErrNotFound)
// regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Msg: "authentication required"}
	ErrForbidden    = &Error{Kind: KindForbidden, Msg: "insufficient permissions"}
	ErrInvalidInput = &Error{Kind: KindInvalidInput, Msg: "invalid input"}
	ErrNotFound     = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrDependency   = &Error{Kind: KindDependency, Msg: "dependency failure"}
)

func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func InvalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }

func Conflict(msg string, cause error) error {
	return &Error{Kind: KindConflict, Msg: msg, Err: cause}
}

func Dependency(msg string, cause error) error {
	return &Error{Kind: KindDependency, Msg: msg, Err: cause}
}

// KindOf returns the classification of the outermost *Error in the chain,
// or KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps a Kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   Kind   `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError builds the client-facing envelope. Only Msg is exposed, never the
// wrapped cause, so storage errors are not echoed back.
func FromError(err error) *APIError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return &APIError{Detail: "internal server error", Code: KindInternal}
	}
	return &APIError{Detail: e.Msg, Code: e.Kind}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   Kind              `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Code: KindInvalidInput, Fields: fields}
}
