package booking_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
	"github.com/iliyamo/workspace-booking/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func ivl(startHour, startMin, endHour, endMin int) model.Interval {
	return model.Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func newEngine(t *testing.T) (*booking.Service, *repository.MemoryStore, *fakeClock, string) {
	t.Helper()
	store := repository.NewMemoryStore()
	room := store.AddRoom(model.Room{Name: "meeting-room-1", Capacity: 8, IsActive: true})
	clock := &fakeClock{now: at(8, 0)}
	svc := booking.NewService(store, booking.Options{
		PendingTTL: 30 * time.Minute,
		Clock:      clock,
	})
	return svc, store, clock, room.ID
}

func TestCreateReservation(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if res.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", res.Status)
	}
	if res.ID == "" {
		t.Error("reservation id not assigned")
	}

	confirmed, err := svc.Create(ctx, roomID, "bob", ivl(14, 0, 15, 0), true)
	if err != nil {
		t.Fatalf("single-step create failed: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 10, 0), false); !errors.Is(err, booking.ErrInvalidInterval) {
		t.Errorf("zero duration: got %v, want ErrInvalidInterval", err)
	}
	if _, err := svc.Create(ctx, roomID, "alice", ivl(11, 0, 10, 0), false); !errors.Is(err, booking.ErrInvalidInterval) {
		t.Errorf("negative duration: got %v, want ErrInvalidInterval", err)
	}
}

func TestCreateUnknownRoom(t *testing.T) {
	svc, _, _, _ := newEngine(t)
	if _, err := svc.Create(context.Background(), "nope", "alice", ivl(10, 0, 11, 0), false); !errors.Is(err, booking.ErrRoomNotFound) {
		t.Errorf("got %v, want ErrRoomNotFound", err)
	}
}

func TestCreateInactiveRoom(t *testing.T) {
	svc, store, _, _ := newEngine(t)
	closed := store.AddRoom(model.Room{Name: "closed-room"})
	if _, err := svc.Create(context.Background(), closed.ID, "alice", ivl(10, 0, 11, 0), false); !errors.Is(err, booking.ErrRoomNotFound) {
		t.Errorf("got %v, want ErrRoomNotFound", err)
	}
}

func TestCreateConflictReportsIDs(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = svc.Create(ctx, roomID, "bob", ivl(10, 30, 11, 30), false)
	ce, ok := booking.IsConflict(err)
	if !ok {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if len(ce.ReservationIDs) != 1 || ce.ReservationIDs[0] != first.ID {
		t.Errorf("conflicting ids = %v, want [%s]", ce.ReservationIDs, first.ID)
	}

	// Containment in either direction conflicts too.
	if _, err := svc.Create(ctx, roomID, "bob", ivl(10, 15, 10, 45), false); err == nil {
		t.Error("contained interval should conflict")
	}
	if _, err := svc.Create(ctx, roomID, "bob", ivl(9, 0, 12, 0), false); err == nil {
		t.Error("containing interval should conflict")
	}
}

func TestAdjacentIntervalsDoNotConflict(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(ctx, roomID, "bob", ivl(11, 0, 12, 0), true); err != nil {
		t.Fatalf("adjacent create failed: %v", err)
	}
}

func TestCancelledReservationDoesNotBlock(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Create(ctx, roomID, "bob", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("rebooking a cancelled slot failed: %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	confirmed, err := svc.Confirm(ctx, res.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if confirmed.Status != model.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}
	// Confirming twice is not a valid transition.
	if _, err := svc.Confirm(ctx, res.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("double confirm: got %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Cancel(ctx, res.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// Double cancel surfaces as an error, not silent success.
	if _, err := svc.Cancel(ctx, res.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Errorf("double cancel: got %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Confirm(ctx, "missing"); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("confirm unknown id: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Cancel(ctx, "missing"); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("cancel unknown id: got %v, want ErrNotFound", err)
	}
}

func TestRescheduleExcludesSelf(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	// Rescheduling to the identical interval overlaps only itself.
	same, err := svc.Reschedule(ctx, res.ID, ivl(10, 0, 11, 0))
	if err != nil {
		t.Fatalf("reschedule to same interval failed: %v", err)
	}
	if !same.Interval.Start.Equal(at(10, 0)) {
		t.Errorf("interval start = %v, want 10:00", same.Interval.Start)
	}

	moved, err := svc.Reschedule(ctx, res.ID, ivl(13, 0, 14, 0))
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if !moved.Interval.Start.Equal(at(13, 0)) || !moved.Interval.End.Equal(at(14, 0)) {
		t.Errorf("interval = %v, want [13:00, 14:00)", moved.Interval)
	}
	// The old slot is free again.
	if _, err := svc.Create(ctx, roomID, "bob", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("old slot should be free after reschedule: %v", err)
	}
}

func TestRescheduleConflictsWithOthers(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	res, err := svc.Create(ctx, roomID, "bob", ivl(12, 0, 13, 0), true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Reschedule(ctx, res.ID, ivl(10, 30, 11, 30)); err == nil {
		t.Fatal("reschedule into an occupied slot should conflict")
	}
	if _, err := svc.Reschedule(ctx, "missing", ivl(10, 0, 11, 0)); !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	if _, err := svc.Reschedule(ctx, res.ID, ivl(11, 0, 10, 0)); !errors.Is(err, booking.ErrInvalidInterval) {
		t.Errorf("got %v, want ErrInvalidInterval", err)
	}
}

func TestConcurrentCreateExactlyOneWins(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	iv := ivl(10, 0, 11, 0)

	const workers = 16
	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, results[n] = svc.Create(context.Background(), roomID, "user", iv, true)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		default:
			if _, ok := booking.IsConflict(err); !ok {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1 (conflicts = %d)", wins, conflicts)
	}
}

func TestPendingExpiry(t *testing.T) {
	svc, store, clock, roomID := newEngine(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Within the TTL the sweep leaves it alone and confirm works.
	if n, err := svc.ExpirePending(ctx); err != nil || n != 0 {
		t.Fatalf("sweep = (%d, %v), want (0, nil)", n, err)
	}

	clock.Advance(time.Hour)

	// Confirming after the TTL expires the reservation instead.
	if _, err := svc.Confirm(ctx, res.ID); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("confirm after TTL: got %v, want ErrInvalidTransition", err)
	}
	got, err := store.GetReservation(ctx, res.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	// The slot is bookable again.
	if _, err := svc.Create(ctx, roomID, "bob", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("slot should be free after expiry: %v", err)
	}
}

func TestPendingExpirySweep(t *testing.T) {
	svc, store, clock, roomID := newEngine(t)
	ctx := context.Background()

	pending, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), false)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	confirmed, err := svc.Create(ctx, roomID, "bob", ivl(12, 0, 13, 0), true)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	clock.Advance(time.Hour)
	n, err := svc.ExpirePending(ctx)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired %d, want 1", n)
	}
	if got, _ := store.GetReservation(ctx, pending.ID); got.Status != model.StatusCancelled {
		t.Errorf("pending reservation status = %s, want CANCELLED", got.Status)
	}
	if got, _ := store.GetReservation(ctx, confirmed.ID); got.Status != model.StatusConfirmed {
		t.Errorf("confirmed reservation status = %s, want CONFIRMED", got.Status)
	}
}

// TestNoOverlapInvariantRandomized hammers a single room with random
// intervals and then verifies the core safety invariant: no two active
// reservations overlap, no matter which creations were accepted.
func TestNoOverlapInvariantRandomized(t *testing.T) {
	svc, store, _, roomID := newEngine(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	day := model.Interval{Start: at(0, 0), End: at(0, 0).Add(24 * time.Hour)}
	for i := 0; i < 300; i++ {
		start := rng.Intn(23 * 60)
		length := 15 + rng.Intn(180)
		iv := model.Interval{
			Start: day.Start.Add(time.Duration(start) * time.Minute),
			End:   day.Start.Add(time.Duration(start+length) * time.Minute),
		}
		_, err := svc.Create(ctx, roomID, "fuzz", iv, rng.Intn(2) == 0)
		if err != nil {
			if _, ok := booking.IsConflict(err); !ok {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	active, err := store.FindActiveInWindow(ctx, roomID, model.Interval{
		Start: day.Start.Add(-24 * time.Hour),
		End:   day.End.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("window query failed: %v", err)
	}
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if active[i].Interval.Overlaps(active[j].Interval) {
				t.Fatalf("invariant violated: %s %v overlaps %s %v",
					active[i].ID, active[i].Interval, active[j].ID, active[j].Interval)
			}
		}
	}
}

// stalledStore simulates a database that stops responding: every room
// transaction blocks until the operation timeout fires.
type stalledStore struct {
	*repository.MemoryStore
}

func (s *stalledStore) InRoomTx(ctx context.Context, roomID string, fn func(tx booking.RoomTx) error) error {
	<-ctx.Done()
	return ctx.Err()
}

// failingStore reports every overlap lookup as a storage failure, the
// way the MySQL repository wraps driver errors.
type failingStore struct {
	*repository.MemoryStore
}

func (s *failingStore) FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	return nil, fmt.Errorf("%w: connection refused", booking.ErrStoreUnavailable)
}

func TestCreateStoreTimeout(t *testing.T) {
	inner := repository.NewMemoryStore()
	room := inner.AddRoom(model.Room{Name: "meeting-room-1", IsActive: true})
	svc := booking.NewService(&stalledStore{MemoryStore: inner}, booking.Options{
		StoreTimeout: 20 * time.Millisecond,
	})

	_, err := svc.Create(context.Background(), room.ID, "alice", ivl(10, 0, 11, 0), true)
	if !errors.Is(err, booking.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
	if _, ok := booking.IsConflict(err); ok {
		t.Fatal("timeout must not be reported as a conflict")
	}
}

func TestCheckAvailabilityStoreFailure(t *testing.T) {
	inner := repository.NewMemoryStore()
	room := inner.AddRoom(model.Room{Name: "meeting-room-1", IsActive: true})
	svc := booking.NewService(&failingStore{MemoryStore: inner}, booking.Options{})

	// A broken store never answers "available".
	err := svc.CheckAvailability(context.Background(), room.ID, ivl(10, 0, 11, 0))
	if !errors.Is(err, booking.ErrStoreUnavailable) {
		t.Fatalf("got %v, want ErrStoreUnavailable", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	svc, _, _, roomID := newEngine(t)
	ctx := context.Background()

	if err := svc.CheckAvailability(ctx, roomID, ivl(10, 0, 11, 0)); err != nil {
		t.Fatalf("empty room should be available: %v", err)
	}
	if _, err := svc.Create(ctx, roomID, "alice", ivl(10, 0, 11, 0), true); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.CheckAvailability(ctx, roomID, ivl(10, 30, 11, 30)); err == nil {
		t.Fatal("occupied slot should report a conflict")
	}
}
