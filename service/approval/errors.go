package approval

import "errors"

// Expected domain conditions, detectable via errors.Is.  Anything else
// returned by the service is an internal fault and must not be treated as a
// verdict.
var (
	// ErrNotFound is returned when resolving an unknown id, or an id that
	// already reached a terminal state - resolving twice is not idempotent.
	ErrNotFound = errors.New("approval: request not found")

	// ErrExpired is returned when a decision arrives past the request TTL.
	// The service self-heals the request to expired instead of honouring the
	// stale decision.
	ErrExpired = errors.New("approval: request expired")

	// ErrInvalidDecision is returned for an unrecognised decision verb.
	ErrInvalidDecision = errors.New("approval: invalid decision")
)
