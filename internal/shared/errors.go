package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a duplicate unique field or a referenced entity.
	ErrConflict = errors.New("conflict")
	// ErrForbidden indicates the actor lacks access to a menu.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure. Every auth subtype wraps it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTransaction indicates an unexpected failure inside a transaction.
	ErrTransaction = errors.New("transaction failed")
	// ErrUpload indicates the upload collaborator failed.
	ErrUpload = errors.New("upload failed")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// Authentication failure subtypes.
var (
	ErrUserNotFound   = fmt.Errorf("%w: user not found", ErrInvalidCredentials)
	ErrBadCredentials = fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
	ErrNotAnEmployee  = fmt.Errorf("%w: user is not an employee", ErrInvalidCredentials)
	ErrNoRoleAssigned = fmt.Errorf("%w: employee has no role", ErrInvalidCredentials)
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError holding a single field message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add records a message for field, keeping the first message per field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = message
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFound wraps ErrNotFound with the entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Conflict wraps ErrConflict with an explanatory message.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// UserSafeMessage converts an error into a message safe to show to callers.
func UserSafeMessage(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Username atau password salah"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden):
		return err.Error()
	case errors.Is(err, ErrUpload):
		return "Gagal mengunggah berkas"
	default:
		return "Terjadi kesalahan pada server"
	}
}
