package types

import "errors"

// Shared error taxonomy. Components wrap these sentinels with context via
// fmt.Errorf("...: %w", ...) and the API layer maps them to status codes
// with errors.Is.
var (
	// ErrInvalidArgument marks malformed caller input, not retryable as-is.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden marks an authorization failure. Callers render it
	// without detail so non-participants learn nothing about who the
	// session's participants are.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an unknown session, message or profile id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an illegal lifecycle transition.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable marks an exhausted write cascade or a partially
	// failed multi-step operation. The whole operation may be retried.
	ErrUnavailable = errors.New("unavailable")
)
