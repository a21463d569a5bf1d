package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Producers wrap them with fmt.Errorf("%w: ...") so callers can
// classify failures with errors.Is.
var (
	// ErrValidation reports malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports that the requester is neither the owner nor an admin.
	ErrForbidden = errors.New("not authorized")
	// ErrConflict reports a concurrent mutation that lost a race; the caller may retry.
	ErrConflict = errors.New("conflict")
	// ErrTranscode reports a transcoder failure.
	ErrTranscode = errors.New("transcode failed")
	// ErrIO reports a storage failure.
	ErrIO = errors.New("storage error")
)

// Validation returns an ErrValidation carrying a formatted message.
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an ErrNotFound naming the missing entity.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Forbidden returns an ErrForbidden describing the denied action.
func Forbidden(action string) error {
	return fmt.Errorf("%w to %s", ErrForbidden, action)
}

// IO wraps a storage failure, keeping the cause in the chain.
func IO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// HTTPStatus maps an error to the HTTP status code that should be returned to
// the client. Unclassified errors are reported as 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text that is safe to show to a client. Internal failures
// are replaced by a generic message.
func Message(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
