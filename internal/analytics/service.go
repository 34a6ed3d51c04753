// Package analytics computes room availability and utilization on
// demand.  It is read-only: it never persists results, so every answer
// reflects the latest committed reservations, and it takes no locks, so
// queries run fully in parallel with writers and may be immediately
// stale.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
)

// RoomDirectory is the room lookup the service needs to reject unknown
// rooms.  Both repository.RoomRepo and repository.MemoryStore satisfy it.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id string) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
}

// WorkingHours bounds the free-slot computation to the organization's
// bookable day, e.g. 9 to 17 for [09:00, 17:00).
type WorkingHours struct {
	StartHour int
	EndHour   int
}

// Window returns the working-hours interval of the day containing t,
// in UTC.
func (w WorkingHours) Window(t time.Time) model.Interval {
	day := t.UTC().Truncate(24 * time.Hour)
	return model.Interval{
		Start: day.Add(time.Duration(w.StartHour) * time.Hour),
		End:   day.Add(time.Duration(w.EndHour) * time.Hour),
	}
}

// UtilizationSummary is derived per query and never stored.
type UtilizationSummary struct {
	RoomID         string        `json:"room_id"`
	WindowStart    time.Time     `json:"window_start"`
	WindowEnd      time.Time     `json:"window_end"`
	BookedDuration time.Duration `json:"booked_duration_ns"`
	BookingCount   int           `json:"booking_count"`
	OccupancyRatio float64       `json:"occupancy_ratio"`
}

// Service answers free-slot and utilization queries against the
// reservation store.
type Service struct {
	store booking.Store
	rooms RoomDirectory
	hours WorkingHours
}

// NewService builds the analytics service.
func NewService(store booking.Store, rooms RoomDirectory, hours WorkingHours) *Service {
	return &Service{store: store, rooms: rooms, hours: hours}
}

// FreeSlots returns the ordered gaps between active reservations within
// the working-hours window of the given day.  A room with no bookings
// yields the entire window as one free slot.
func (s *Service) FreeSlots(ctx context.Context, roomID string, day time.Time) ([]model.Interval, error) {
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	window := s.hours.Window(day)
	reservations, err := s.store.FindActiveInWindow(ctx, roomID, window)
	if err != nil {
		return nil, err
	}

	busy := make([]model.Interval, 0, len(reservations))
	for _, res := range reservations {
		if clipped, ok := res.Interval.Clip(window); ok {
			busy = append(busy, clipped)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	merged := model.MergeIntervals(busy)

	// Invert the merged busy runs against the window; the gaps are the
	// free slots.
	free := make([]model.Interval, 0, len(merged)+1)
	cursor := window.Start
	for _, b := range merged {
		if cursor.Before(b.Start) {
			free = append(free, model.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, model.Interval{Start: cursor, End: window.End})
	}
	return free, nil
}

// Utilization sums the durations of active reservations intersecting
// the window, clipped to its boundary, and divides by the window length
// for the occupancy ratio.  With confirmedOnly set, pending bookings
// are left out of the tally.
func (s *Service) Utilization(ctx context.Context, roomID string, window model.Interval, confirmedOnly bool) (*UtilizationSummary, error) {
	if !window.IsValid() {
		return nil, booking.ErrInvalidInterval
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return s.summarize(ctx, roomID, window, confirmedOnly)
}

// UtilizationAll reports one summary per room over the same window.
func (s *Service) UtilizationAll(ctx context.Context, window model.Interval, confirmedOnly bool) ([]UtilizationSummary, error) {
	if !window.IsValid() {
		return nil, booking.ErrInvalidInterval
	}
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UtilizationSummary, 0, len(rooms))
	for _, rm := range rooms {
		sum, err := s.summarize(ctx, rm.ID, window, confirmedOnly)
		if err != nil {
			return nil, err
		}
		out = append(out, *sum)
	}
	return out, nil
}

func (s *Service) summarize(ctx context.Context, roomID string, window model.Interval, confirmedOnly bool) (*UtilizationSummary, error) {
	reservations, err := s.store.FindActiveInWindow(ctx, roomID, window)
	if err != nil {
		return nil, err
	}
	var booked time.Duration
	count := 0
	for _, res := range reservations {
		if confirmedOnly && res.Status != model.StatusConfirmed {
			continue
		}
		clipped, ok := res.Interval.Clip(window)
		if !ok {
			continue
		}
		booked += clipped.Duration()
		count++
	}
	return &UtilizationSummary{
		RoomID:         roomID,
		WindowStart:    window.Start,
		WindowEnd:      window.End,
		BookedDuration: booked,
		BookingCount:   count,
		OccupancyRatio: float64(booked) / float64(window.Duration()),
	}, nil
}
