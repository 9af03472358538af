package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones match their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrInvalidFormat     = New("INVALID_FORMAT", http.StatusBadRequest, "time must be formatted as HH:MM")
	ErrAlreadyRegistered = New("ALREADY_REGISTERED", http.StatusConflict, "already registered for this course")
	ErrTimeConflict      = New("TIME_CONFLICT", http.StatusConflict, "time conflict with a registered course")
	ErrNotRegistered     = New("NOT_REGISTERED", http.StatusNotFound, "course is not registered")
	ErrDuplicatePending  = New("DUPLICATE_PENDING", http.StatusConflict, "drop request already submitted for this course")
	ErrAlreadyResolved   = New("ALREADY_RESOLVED", http.StatusConflict, "drop request already handled")
	ErrPersistence       = New("PERSISTENCE_FAILURE", http.StatusInternalServerError, "failed to persist state")

	// ErrRecordNotFound is returned by blob stores for a missing key. Services treat it as empty state.
	ErrRecordNotFound = New("RECORD_NOT_FOUND", http.StatusNotFound, "record not found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of the error carrying a payload for the client.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}

// Persistence wraps a storage failure so the caller reports it instead of committing state.
func Persistence(err error, message string) *Error {
	return Wrap(err, ErrPersistence.Code, ErrPersistence.Status, message)
}
