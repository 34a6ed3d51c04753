package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
)

// MemoryStore is an in-memory implementation of booking.Store with the
// same contracts as the MySQL repository, including the per-room
// serialization guarantee: InRoomTx holds a mutex dedicated to the room
// for the whole check-then-write sequence.  It backs the engine tests
// and doubles as a room directory for the analytics service.
type MemoryStore struct {
	mu           sync.Mutex
	rooms        map[string]model.Room
	roomLocks    map[string]*sync.Mutex
	reservations map[string]*model.Reservation
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        map[string]model.Room{},
		roomLocks:    map[string]*sync.Mutex{},
		reservations: map[string]*model.Reservation{},
	}
}

var _ booking.Store = (*MemoryStore)(nil)

// AddRoom registers a room, assigning a UUID when the ID is empty.
func (s *MemoryStore) AddRoom(rm model.Room) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rm.ID == "" {
		rm.ID = uuid.NewString()
	}
	if rm.CreatedAt.IsZero() {
		rm.CreatedAt = time.Now().UTC()
		rm.UpdatedAt = rm.CreatedAt
	}
	s.rooms[rm.ID] = rm
	s.roomLocks[rm.ID] = &sync.Mutex{}
	return rm
}

// GetRoom fetches a room by id.
func (s *MemoryStore) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[id]
	if !ok {
		return nil, booking.ErrRoomNotFound
	}
	return &rm, nil
}

// ListRooms returns all rooms sorted by name.
func (s *MemoryStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Room, 0, len(s.rooms))
	for _, rm := range s.rooms {
		out = append(out, rm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) activeForRoom(roomID string, window model.Interval, excludeID string) []model.Reservation {
	var out []model.Reservation
	for _, res := range s.reservations {
		if res.RoomID != roomID || res.ID == excludeID || !res.Active() {
			continue
		}
		if res.Interval.Overlaps(window) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out
}

func (s *MemoryStore) FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeForRoom(roomID, iv, excludeID), nil
}

func (s *MemoryStore) FindActiveInWindow(ctx context.Context, roomID string, window model.Interval) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeForRoom(roomID, window, ""), nil
}

func (s *MemoryStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if !model.CanTransition(res.Status, status) {
		return nil, booking.ErrInvalidTransition
	}
	res.Status = status
	res.UpdatedAt = time.Now().UTC()
	cp := *res
	return &cp, nil
}

func (s *MemoryStore) ExpirePending(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, res := range s.reservations {
		if res.Status == model.StatusPending && res.CreatedAt.Before(cutoff) {
			res.Status = model.StatusCancelled
			res.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// InRoomTx serializes writers per room.  The room mutex is taken for
// the whole callback, so the conflict check and the following write are
// indivisible with respect to other writers on the same room.
func (s *MemoryStore) InRoomTx(ctx context.Context, roomID string, fn func(tx booking.RoomTx) error) error {
	s.mu.Lock()
	rm, ok := s.rooms[roomID]
	lk := s.roomLocks[roomID]
	s.mu.Unlock()
	// Inactive rooms are hidden from booking and report not-found.
	if !ok || !rm.IsActive {
		return booking.ErrRoomNotFound
	}
	lk.Lock()
	defer lk.Unlock()
	return fn(&memTx{store: s})
}

type memTx struct {
	store *MemoryStore
}

func (t *memTx) FindActiveOverlapping(ctx context.Context, roomID string, iv model.Interval, excludeID string) ([]model.Reservation, error) {
	return t.store.FindActiveOverlapping(ctx, roomID, iv, excludeID)
}

func (t *memTx) Create(ctx context.Context, res *model.Reservation) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	cp := *res
	t.store.reservations[res.ID] = &cp
	return nil
}

func (t *memTx) UpdateInterval(ctx context.Context, id string, iv model.Interval) (*model.Reservation, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	res, ok := t.store.reservations[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if !res.Active() {
		return nil, booking.ErrInvalidTransition
	}
	res.Interval = iv
	res.UpdatedAt = time.Now().UTC()
	cp := *res
	return &cp, nil
}
