// Package lifecycle holds the status, timeline and visit rules shared by
// tickets and service requests. Every operation works on a single
// domain.Entry value and either applies completely or leaves it untouched.
package lifecycle

import (
	"errors"
	"time"
)

var (
	ErrEmptyNote         = errors.New("note is required")
	ErrNoteTooShort      = errors.New("note must be at least 3 characters long")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIndexOutOfRange   = errors.New("timeline index out of range")
	ErrVisitInPast       = errors.New("visit time cannot be in the past")
	ErrActorNotPermitted = errors.New("actor not permitted")
	ErrInvalidSlot       = errors.New("invalid time slot")
	ErrInvalidDate       = errors.New("invalid date")
	ErrPreferredVisitSet = errors.New("preferred visit already set")

	// ErrNoEffectiveChange signals that the requested value equals the
	// current one. Callers use it to skip persistence, not to report failure.
	ErrNoEffectiveChange = errors.New("no effective change")
)

// Clock returns the current time. Components default to time.Now.
type Clock func() time.Time
