// Package handler is the HTTP layer: it parses requests, pulls the
// authenticated principal out of the context, calls services, and writes
// JSON. All error-to-status translation happens in writeError, so the
// service layer never sees a status code.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tracker/internal/apperror"
)

// ErrorResponse is the standard error shape for every non-auth failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// authErrorResponse is the distinct 401 shape for authentication failures.
type authErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent at this point; logging is all
			// that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP response.
//
// Three shapes exist: authentication failures use the {"detail","code"}
// body, multi-field validation failures return a map of field → message,
// and everything else uses ErrorResponse. Unknown errors become a generic
// 500 so internal detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var fieldErrs *apperror.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusBadRequest, fieldErrs.Fields)
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if errors.Is(err, apperror.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, authErrorResponse{
				Detail: appErr.Message,
				Code:   "authentication_failed",
			})
			return
		}

		status := http.StatusInternalServerError
		errorType := "internal_error"
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		// Validation errors with a field render as a single-field map, the
		// same shape FieldErrors produces for several fields.
		if errorType == "validation_error" && appErr.Field != "" {
			writeJSON(w, status, map[string]string{appErr.Field: appErr.Message})
			return
		}

		writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// pathID parses a numeric chi URL parameter. A non-numeric id reads the
// same as a missing resource: 404, never 400, so probing the id space
// reveals nothing about what exists.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFoundMsg("resource not found")
	}
	return id, nil
}

// decodeJSON decodes the request body into dst, rejecting malformed JSON
// as a validation failure.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
