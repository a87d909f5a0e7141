package domain

import "errors"

// Error kinds. Every service sentinel wraps exactly one of these, so
// callers can classify a failure with errors.Is against the kind without
// knowing the specific sentinel, and never by parsing message text.
var (
	// ErrNotFound: a referenced entity is absent.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict: uniqueness violation, or deletion blocked by
	// referential state.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput: malformed or insufficient request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState: business-rule violation (unavailable item,
	// already-returned loan, counter bound breach).
	ErrInvalidState = errors.New("invalid state")

	// ErrStorageUnavailable: connection or transaction infrastructure
	// failure. Not retried here; surfaced immediately.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnauthorized: missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
