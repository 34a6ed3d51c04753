package booking

import (
	"context"

	"github.com/iliyamo/workspace-booking/internal/model"
)

// Checker decides whether a candidate interval may occupy a room.  It
// is stateless; the overlap source supplies the reservations to test
// against, which on the write path is the room transaction so the
// answer stays valid until the write commits.
type Checker struct{}

// Check returns nil when the interval is free, ErrInvalidInterval for
// zero or negative duration input, and a *ConflictError listing every
// overlapping active reservation otherwise.  excludeID names a
// reservation to ignore, used when rescheduling so a reservation never
// conflicts with itself.
//
// The store pre-filters by a coarse range; the exact half-open overlap
// predicate is applied here so adjacency never counts as a conflict
// while containment in either direction always does.
func (Checker) Check(ctx context.Context, src OverlapSource, roomID string, iv model.Interval, excludeID string) error {
	if !iv.IsValid() {
		return ErrInvalidInterval
	}
	existing, err := src.FindActiveOverlapping(ctx, roomID, iv, excludeID)
	if err != nil {
		return err
	}
	var ids []string
	for _, res := range existing {
		if res.ID == excludeID {
			continue
		}
		if res.Active() && iv.Overlaps(res.Interval) {
			ids = append(ids, res.ID)
		}
	}
	if len(ids) > 0 {
		return &ConflictError{ReservationIDs: ids}
	}
	return nil
}
