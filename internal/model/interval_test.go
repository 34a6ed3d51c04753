package model

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func ivl(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", ivl(10, 0, 11, 0), ivl(10, 0, 11, 0), true},
		{"partial overlap", ivl(10, 0, 11, 0), ivl(10, 30, 11, 30), true},
		{"a contains b", ivl(9, 0, 12, 0), ivl(10, 0, 11, 0), true},
		{"b contains a", ivl(10, 0, 11, 0), ivl(9, 0, 12, 0), true},
		{"adjacent is not overlap", ivl(10, 0, 11, 0), ivl(11, 0, 12, 0), false},
		{"adjacent reversed", ivl(11, 0, 12, 0), ivl(10, 0, 11, 0), false},
		{"disjoint", ivl(9, 0, 10, 0), ivl(14, 0, 15, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestIntervalContains(t *testing.T) {
	iv := ivl(10, 0, 11, 0)
	if !iv.Contains(at(10, 0)) {
		t.Error("start instant should be included")
	}
	if iv.Contains(at(11, 0)) {
		t.Error("end instant should be excluded")
	}
	if !iv.Contains(at(10, 30)) {
		t.Error("midpoint should be included")
	}
}

func TestIntervalIsValid(t *testing.T) {
	if ivl(10, 0, 10, 0).IsValid() {
		t.Error("zero-duration interval should be invalid")
	}
	if ivl(11, 0, 10, 0).IsValid() {
		t.Error("negative-duration interval should be invalid")
	}
	if !ivl(10, 0, 10, 1).IsValid() {
		t.Error("positive-duration interval should be valid")
	}
}

func TestIntervalClip(t *testing.T) {
	window := ivl(9, 0, 17, 0)

	got, ok := ivl(8, 0, 10, 0).Clip(window)
	if !ok || !got.Start.Equal(at(9, 0)) || !got.End.Equal(at(10, 0)) {
		t.Fatalf("clip head: got %v ok=%v", got, ok)
	}
	got, ok = ivl(16, 0, 18, 0).Clip(window)
	if !ok || !got.Start.Equal(at(16, 0)) || !got.End.Equal(at(17, 0)) {
		t.Fatalf("clip tail: got %v ok=%v", got, ok)
	}
	if _, ok := ivl(7, 0, 8, 0).Clip(window); ok {
		t.Fatal("disjoint interval should not clip")
	}
}

func TestMergeIntervals(t *testing.T) {
	cases := []struct {
		name string
		in   []Interval
		want []Interval
	}{
		{"empty", nil, nil},
		{"single", []Interval{ivl(10, 0, 11, 0)}, []Interval{ivl(10, 0, 11, 0)}},
		{
			"overlapping pair",
			[]Interval{ivl(10, 0, 11, 0), ivl(10, 30, 12, 0)},
			[]Interval{ivl(10, 0, 12, 0)},
		},
		{
			"touching pair coalesces",
			[]Interval{ivl(10, 0, 11, 0), ivl(11, 0, 12, 0)},
			[]Interval{ivl(10, 0, 12, 0)},
		},
		{
			"disjoint stay apart",
			[]Interval{ivl(9, 0, 10, 0), ivl(12, 0, 13, 0)},
			[]Interval{ivl(9, 0, 10, 0), ivl(12, 0, 13, 0)},
		},
		{
			"contained disappears",
			[]Interval{ivl(9, 0, 12, 0), ivl(10, 0, 11, 0)},
			[]Interval{ivl(9, 0, 12, 0)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeIntervals(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d intervals, want %d: %v", len(got), len(tc.want), got)
			}
			for i := range got {
				if !got[i].Start.Equal(tc.want[i].Start) || !got[i].End.Equal(tc.want[i].End) {
					t.Fatalf("interval %d: got %v, want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to ReservationStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
