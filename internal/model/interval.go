package model

import "time"

// Interval is a half-open time range [Start, End) expressed as UTC
// instants.  All interval comparisons inside the engine use this single
// canonical representation; timezone conversion is the caller's concern.
//
// Because the range is half-open, two intervals that merely touch
// (End of one equals Start of the other) do not overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsValid reports whether the interval has positive duration.  Zero or
// negative duration intervals are rejected before they reach storage.
func (iv Interval) IsValid() bool {
	return iv.Start.Before(iv.End)
}

// Overlaps reports whether iv and other share at least one instant.
// Both intervals are treated as half-open, so adjacency is not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside the interval.  The start
// instant is included, the end instant is not.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Clip trims the interval to the given bound.  The second return value
// is false when the two do not intersect at all.
func (iv Interval) Clip(bound Interval) (Interval, bool) {
	if !iv.Overlaps(bound) {
		return Interval{}, false
	}
	out := iv
	if out.Start.Before(bound.Start) {
		out.Start = bound.Start
	}
	if out.End.After(bound.End) {
		out.End = bound.End
	}
	return out, true
}

// MergeIntervals collapses a slice of intervals sorted by start time
// into the minimal sequence of non-overlapping intervals.  Adjacent
// intervals are coalesced as well, which is what the free-slot
// inversion wants.  The input slice is not modified.
func MergeIntervals(sorted []Interval) []Interval {
	if len(sorted) == 0 {
		return nil
	}
	merged := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if !iv.Start.After(cur.End) {
			// Overlapping or touching; extend the current run.
			if iv.End.After(cur.End) {
				cur.End = iv.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = iv
	}
	return append(merged, cur)
}
