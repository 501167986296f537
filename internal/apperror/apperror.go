package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// NotFoundMsg is NotFound with a caller-supplied message, for resources
// not addressed by a numeric id.
func NotFoundMsg(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// ConflictField is Conflict with the offending field attached, so callers
// that report conflicts as validation output (the signup path) can fold it
// into a per-field error map.
func ConflictField(field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError indicating the request carried no valid
// credentials. HTTP handlers map this to a 401 with the body shape
// {"detail": <message>, "code": "authentication_failed"}.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// FieldErrors collects validation failures for several fields at once.
// The signup operation validates the whole payload and reports every
// broken field in one 400 response instead of stopping at the first.
type FieldErrors struct {
	Fields map[string]string
}

func NewFieldErrors() *FieldErrors {
	return &FieldErrors{Fields: make(map[string]string)}
}

// Add records a failure for field unless one is already recorded.
// The first failure per field wins.
func (e *FieldErrors) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func (e *FieldErrors) Empty() bool {
	return len(e.Fields) == 0
}

func (e *FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

func (e *FieldErrors) Unwrap() error {
	return ErrValidation
}
