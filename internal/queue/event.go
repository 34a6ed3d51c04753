// Package queue defines message payloads exchanged over the message broker.
package queue

// Event type values carried in ReservationEvent.Type.
const (
	EventCreated     = "reservation.created"
	EventConfirmed   = "reservation.confirmed"
	EventCancelled   = "reservation.cancelled"
	EventRescheduled = "reservation.rescheduled"
)

// ReservationEvent is published whenever a reservation changes state.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	RoomID        string `json:"room_id"`
	RequesterID   string `json:"requester_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
