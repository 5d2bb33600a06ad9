// Package apperrors defines the error taxonomy shared across the service.
// Callers wrap these sentinels with fmt.Errorf("%w: ...") and match them
// with errors.Is at the API boundary.
package apperrors

import "errors"

var (
	// ErrValidation marks a submit with missing or malformed required fields.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized marks an admin-code mismatch on a privileged operation.
	ErrUnauthorized = errors.New("authorization failed")

	// ErrNotFound marks an operation targeting a nonexistent id.
	ErrNotFound = errors.New("not found")

	// ErrExternalFetch marks an unreachable or unparsable external feed.
	// Always scoped to a single source, never fatal for a sync run.
	ErrExternalFetch = errors.New("external fetch failed")

	// ErrStorage marks an unreachable backing store. Read paths degrade to
	// empty results with an advisory notice instead of failing.
	ErrStorage = errors.New("storage unavailable")
)
