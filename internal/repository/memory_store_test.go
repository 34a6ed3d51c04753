package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
)

func TestMemoryStoreRooms(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rm := store.AddRoom(model.Room{Name: "alpha", IsActive: true})
	if rm.ID == "" {
		t.Fatal("room id not assigned")
	}
	got, err := store.GetRoom(ctx, rm.ID)
	if err != nil || got.Name != "alpha" {
		t.Fatalf("get room = (%v, %v)", got, err)
	}
	if _, err := store.GetRoom(ctx, "missing"); !errors.Is(err, booking.ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}

	store.AddRoom(model.Room{Name: "beta", IsActive: true})
	rooms, err := store.ListRooms(ctx)
	if err != nil || len(rooms) != 2 {
		t.Fatalf("list rooms = (%d, %v), want 2", len(rooms), err)
	}
	if rooms[0].Name != "alpha" || rooms[1].Name != "beta" {
		t.Fatalf("rooms not sorted by name: %v, %v", rooms[0].Name, rooms[1].Name)
	}
}

func TestMemoryStoreInRoomTxUnknownRoom(t *testing.T) {
	store := NewMemoryStore()
	err := store.InRoomTx(context.Background(), "missing", func(tx booking.RoomTx) error {
		t.Fatal("callback must not run for an unknown room")
		return nil
	})
	if !errors.Is(err, booking.ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestMemoryStoreInRoomTxInactiveRoom(t *testing.T) {
	store := NewMemoryStore()
	rm := store.AddRoom(model.Room{Name: "mothballed"})
	err := store.InRoomTx(context.Background(), rm.ID, func(tx booking.RoomTx) error {
		t.Fatal("callback must not run for an inactive room")
		return nil
	})
	if !errors.Is(err, booking.ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rm := store.AddRoom(model.Room{Name: "alpha", IsActive: true})

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	res := &model.Reservation{
		ID:          "res-1",
		RoomID:      rm.ID,
		RequesterID: "alice",
		Interval:    model.Interval{Start: start, End: start.Add(time.Hour)},
		Status:      model.StatusPending,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
	if err := store.InRoomTx(ctx, rm.ID, func(tx booking.RoomTx) error {
		return tx.Create(ctx, res)
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.UpdateStatus(ctx, res.ID, model.StatusConfirmed)
	if err != nil || got.Status != model.StatusConfirmed {
		t.Fatalf("confirm = (%v, %v)", got, err)
	}
	if _, err := store.UpdateStatus(ctx, res.ID, model.StatusPending); !errors.Is(err, booking.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	if _, err := store.UpdateStatus(ctx, "missing", model.StatusCancelled); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreFindActiveOverlapping(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	rm := store.AddRoom(model.Room{Name: "alpha", IsActive: true})

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	mk := func(id string, offset time.Duration, status model.ReservationStatus) {
		res := &model.Reservation{
			ID:       id,
			RoomID:   rm.ID,
			Interval: model.Interval{Start: start.Add(offset), End: start.Add(offset + time.Hour)},
			Status:   status,
		}
		if err := store.InRoomTx(ctx, rm.ID, func(tx booking.RoomTx) error {
			return tx.Create(ctx, res)
		}); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	mk("a", 0, model.StatusConfirmed)
	mk("b", time.Hour, model.StatusPending)
	mk("c", 2*time.Hour, model.StatusCancelled)

	window := model.Interval{Start: start, End: start.Add(3 * time.Hour)}
	got, err := store.FindActiveOverlapping(ctx, rm.ID, window, "")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("got %v, want [a b] (cancelled excluded, sorted by start)", got)
	}

	// Exclusion drops the named reservation from the result.
	got, err = store.FindActiveOverlapping(ctx, rm.ID, window, "a")
	if err != nil || len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("got (%v, %v), want just b", got, err)
	}
}
