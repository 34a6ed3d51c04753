package model

import "time"

// ReservationStatus enumerates the reservation state machine.  Values
// match the status column in the reservations table.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// statusTransitions is the full transition table.  Anything not listed
// here is rejected as an invalid transition; in particular there is no
// way out of CANCELLED.
var statusTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is
// permitted by the state machine.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s ReservationStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// Reservation records a requester's booking of a room for an interval.
// The interval is immutable after creation except through the explicit
// reschedule operation, which re-runs conflict checking.  Reservations
// are never physically deleted; cancellation is a status change so that
// history stays available for analytics.
//
// Fields:
//  ID          – UUID primary key.
//  RoomID      – room being reserved.
//  RequesterID – user who requested the booking.
//  Interval    – half-open [start, end) in UTC.
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp (UTC).
//  UpdatedAt   – last update timestamp (UTC).
type Reservation struct {
	ID          string            `json:"id"`
	RoomID      string            `json:"room_id"`
	RequesterID string            `json:"requester_id"`
	Interval    Interval          `json:"interval"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Active reports whether the reservation counts toward the no-overlap
// invariant.  Cancelled reservations are kept for audit only.
func (r *Reservation) Active() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}
