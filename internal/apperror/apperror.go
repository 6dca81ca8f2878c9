// Package apperror holds the failure taxonomy shared by the job board engine.
//
// Every failure returned to a caller is marked with exactly one of the sentinel
// errors below, so callers can branch with errors.Is regardless of how much
// context was wrapped around it.
package apperror

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Caller-visible failures.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotFound               = errors.New("not found")
	ErrValidationFailed       = errors.New("validation failed")
	ErrDuplicateApplication   = errors.New("you have already applied to this job posting")
	ErrJobInactive            = errors.New("job posting is no longer active")
	ErrDeadlinePassed         = errors.New("application deadline has passed")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrInvalidState           = errors.New("invalid state")
	ErrDatabase               = errors.New("database error")
)

// Side-effect failures. These are logged and never returned to the caller of
// the primary operation.
var (
	ErrAttachmentFailure   = errors.New("attachment failure")
	ErrNotificationFailure = errors.New("notification failure")
)

// Database marks err as an unexpected backend failure.
func Database(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrDatabase)
}

// NotFoundf builds a not-found failure with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

// Validation wraps a validator error as ErrValidationFailed.
func Validation(err error) error {
	return errors.Mark(errors.Wrap(err, ErrValidationFailed.Error()), ErrValidationFailed)
}

// HTTPStatus maps an engine failure to the status code the API should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateApplication):
		return http.StatusConflict
	case errors.Is(err, ErrJobInactive), errors.Is(err, ErrDeadlinePassed), errors.Is(err, ErrInvalidState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine readable name for err.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "authentication_required"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, ErrDuplicateApplication):
		return "duplicate_application"
	case errors.Is(err, ErrJobInactive):
		return "job_inactive"
	case errors.Is(err, ErrDeadlinePassed):
		return "deadline_passed"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "database_error"
	}
}
