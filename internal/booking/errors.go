// Package booking implements the reservation conflict and availability
// engine: the conflict checker and the lifecycle manager that decide
// whether a reservation may be created, confirmed, cancelled or
// rescheduled.  The engine talks to storage only through the Store
// interface defined in this package so it can be exercised against the
// in-memory store in tests.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the engine and by Store implementations.
// Handlers translate these into HTTP statuses; callers may retry
// ErrStoreUnavailable but must never retry a logical conflict.
var (
	// ErrInvalidInterval rejects malformed, zero or negative duration
	// intervals before any storage is touched.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrNotFound is returned when a reservation id is unknown.
	ErrNotFound = errors.New("reservation not found")

	// ErrRoomNotFound is returned when a room id is unknown.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidTransition is returned when a status change is not
	// permitted from the reservation's current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStoreUnavailable wraps persistence timeouts and driver
	// failures.  A timed-out store call surfaces as this error, never
	// as a false "no conflict".
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)

// ConflictError reports that a candidate interval overlaps one or more
// active reservations.  It carries the complete set of conflicting ids
// so the caller can present a full explanation, not just the first hit.
type ConflictError struct {
	ReservationIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval conflicts with active reservations: %s",
		strings.Join(e.ReservationIDs, ", "))
}

// IsConflict reports whether err is a ConflictError and returns it.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
