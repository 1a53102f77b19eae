// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldError is a validation failure tied to one request field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match field errors.
func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a FieldError.
func Invalid(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// RedirectError carries a client route alongside a 403.
type RedirectError struct {
	Message  string
	Redirect string
}

func (e *RedirectError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrForbidden) match redirect errors.
func (e *RedirectError) Is(target error) bool {
	return target == ErrForbidden
}

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	var fieldErr *FieldError
	var redirectErr *RedirectError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		fe := FromValidator(validationErrs)
		Error(w, http.StatusBadRequest, ErrorBody{Message: fe.Message, Field: fe.Field})
	case errors.As(err, &fieldErr):
		Error(w, http.StatusBadRequest, ErrorBody{Message: fieldErr.Message, Field: fieldErr.Field})
	case errors.As(err, &redirectErr):
		Error(w, http.StatusForbidden, ErrorBody{Message: redirectErr.Message, Redirect: redirectErr.Redirect})
	case errors.Is(err, ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		Message(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrForbidden):
		Message(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Message(w, http.StatusUnauthorized, "Unauthorized")
	default:
		slog.Default().Error("unhandled request error", slog.Any("error", err))
		Message(w, http.StatusInternalServerError, "Internal server error")
	}
}
