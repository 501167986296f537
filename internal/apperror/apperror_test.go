package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("project", 42),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user is already a contributor of this project"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("you are not a contributor of this project"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("Empty token."),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "FieldErrors wraps ErrValidation",
			err:       &FieldErrors{Fields: map[string]string{"age": "too young"}},
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrForbidden",
			err:       NotFound("issue", 7),
			target:    ErrForbidden,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrValidation",
			err:       Unauthorized("Invalid token."),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("project", 42),
			wantMessage: "project not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Unauthorized keeps the exact reason text",
			err:         Unauthorized("Authentication credentials were not provided."),
			wantMessage: "Authentication credentials were not provided.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestConflictFieldCarriesField(t *testing.T) {
	err := ConflictField("email", "a user with that email already exists")
	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictField should match ErrConflict")
	}
}

func TestFieldErrors(t *testing.T) {
	fe := NewFieldErrors()
	if !fe.Empty() {
		t.Error("new FieldErrors should be empty")
	}

	fe.Add("password", "password fields did not match")
	fe.Add("password", "this message should not overwrite the first")
	fe.Add("age", "user must be at least 15 years old")

	if fe.Empty() {
		t.Error("FieldErrors with entries should not be empty")
	}
	if got := fe.Fields["password"]; got != "password fields did not match" {
		t.Errorf("first message per field should win, got %q", got)
	}
	if len(fe.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fe.Fields))
	}
}
