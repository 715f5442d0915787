// Package errs defines the error taxonomy shared by all services.
// Handlers dispatch on these sentinels with errors.Is; repositories wrap
// them with %w so the underlying driver error stays inspectable in logs.
package errs

import "errors"

var (
	// ErrNotFound covers any lookup by identifier that matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers a missing or malformed required field.
	ErrValidation = errors.New("validation failed")

	// ErrConflict covers uniqueness violations (duplicate email/username).
	ErrConflict = errors.New("already exists")

	// ErrTransient covers store/cache/bus connectivity failures. Callers
	// may retry; the write path never swallows it.
	ErrTransient = errors.New("transient failure")
)
