package booking

import (
	"context"
	"time"

	"github.com/iliyamo/workspace-booking/internal/model"
)

// OverlapSource is the read side of conflict checking.  Both Store and
// RoomTx satisfy it, so the checker can run against a plain store for
// advisory checks and against a room transaction on the write path.
type OverlapSource interface {
	// FindActiveOverlapping returns the active (PENDING/CONFIRMED)
	// reservations for the room whose intervals could overlap iv.
	// Implementations may pre-filter with a coarse range query; the
	// checker applies the exact predicate afterwards.  When excludeID
	// is non-empty that reservation is left out, which is how
	// reschedule avoids conflicting with itself.
	FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error)
}

// RoomTx is the scope handed to InRoomTx callbacks.  Everything invoked
// through it happens inside the per-room serialization point, so a
// conflict check followed by a write cannot be split by a concurrent
// writer on the same room.
type RoomTx interface {
	OverlapSource

	// Create persists a new reservation.
	Create(ctx context.Context, res *model.Reservation) error

	// UpdateInterval atomically replaces the stored interval of an
	// active reservation.  It fails with ErrNotFound for unknown ids
	// and ErrInvalidTransition when the reservation is cancelled.
	UpdateInterval(ctx context.Context, id string, iv model.Interval) (*model.Reservation, error)
}

// Store is the persistence contract the engine depends on.  It is the
// sole dependency boundary toward storage: the MySQL repository and the
// in-memory test store both satisfy it with identical semantics,
// including the concurrency guarantee of InRoomTx.
//
// Implementations return the sentinel errors of this package and wrap
// timeouts and driver failures in ErrStoreUnavailable.
type Store interface {
	OverlapSource

	// FindActiveInWindow returns the active reservations intersecting
	// the window, ordered by start time.
	FindActiveInWindow(ctx context.Context, roomID string, window model.Interval) ([]model.Reservation, error)

	// GetReservation fetches a reservation by id.
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)

	// UpdateStatus applies a status transition and returns the updated
	// reservation.  The transition table is enforced atomically inside
	// the store; an illegal change fails with ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error)

	// ExpirePending cancels every PENDING reservation created before
	// the cutoff and reports how many were affected.
	ExpirePending(ctx context.Context, cutoff time.Time) (int64, error)

	// InRoomTx runs fn inside the room's serialization point.  The
	// room's existence is verified while acquiring it; unknown rooms
	// fail with ErrRoomNotFound.  Any error from fn rolls the work
	// back.
	InRoomTx(ctx context.Context, roomID string, fn func(tx RoomTx) error) error
}
