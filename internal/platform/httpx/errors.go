// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

// StatusFor maps the shared error taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shared.ErrUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	problem := ProblemDetail{
		Title:  http.StatusText(status),
		Status: status,
		Detail: shared.UserSafeMessage(err),
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		problem.Detail = "Periksa kembali isian formulir"
		problem.Errors = verr.Fields
	}
	JSON(w, status, problem)
}

// Fail logs server-side failures for op and writes the problem response.
func Fail(logger *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	if logger != nil && StatusFor(err) >= http.StatusInternalServerError {
		logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	RespondError(w, err)
}
