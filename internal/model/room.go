package model

import "time"

// Room represents a bookable physical room.  Rooms are created by
// administrators and referenced by reservations; a room that still has
// active reservations cannot be deleted.  Capacity and the active flag
// are the only fields an administrator may edit afterwards.
//
// Fields:
//  ID        – UUID primary key.
//  Name      – human readable display name, unique.
//  Capacity  – number of people the room holds.
//  IsActive  – inactive rooms cannot take new bookings.
//  CreatedAt – creation timestamp (UTC).
//  UpdatedAt – last update timestamp (UTC).
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  uint32    `json:"capacity"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
