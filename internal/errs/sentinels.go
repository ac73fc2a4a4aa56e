// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/tracker layers.
var (
	// ErrNotFound indicates the referenced medicine or tracking slot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate creation or a dose event on an already-resolved slot.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input (bad window, end <= start, negative stock).
	ErrValidation = errors.New("validation failed")

	// ErrBusy indicates storage lock contention; safe to retry with backoff.
	ErrBusy = errors.New("storage busy")

	// ErrStorage indicates an underlying persistence failure.
	ErrStorage = errors.New("storage error")
)

// Code maps an error to its stable taxonomy name for API-style results.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrBusy):
		return "Busy"
	case errors.Is(err, ErrStorage):
		return "StorageError"
	default:
		return "Internal"
	}
}
