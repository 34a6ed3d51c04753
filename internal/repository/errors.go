// Package repository holds the data access layer: MySQL-backed
// repositories for rooms, reservations and users, plus an in-memory
// reservation store that honors the same contracts for tests.  Engine
// level failures are reported with the booking package sentinels;
// errors defined here cover repository-only concerns.
package repository

import "errors"

// ErrRoomInUse is returned when deleting a room that still has active
// reservations.  Handlers translate this into an HTTP 409 response.
var ErrRoomInUse = errors.New("room has active reservations")

// ErrEmailExists is returned when registering with an email address
// that is already taken.
var ErrEmailExists = errors.New("email already exists")
