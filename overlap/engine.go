// Package overlap computes pairwise overlap of axis-aligned rectangles with a sweep line on x.
//
// Touching counts as overlapping on both axes:
//   - x: at equal coordinates start events sort before end events, so a rectangle whose right edge
//     meets another's left edge is active together with it for one instant
//   - y: the interval test uses strict inequalities, so shared horizontal edges overlap
//
// The pass is synchronous and single-threaded. Callers that need it off their own goroutine use the
// dispatch package.
package overlap

import (
	"slices"

	"github.com/lixenwraith/rectlap/geom"
)

// Stats describes one engine pass
type Stats struct {
	Rects       int // Rectangles in the collection
	Events      int // Start plus end events processed
	MaxActive   int // Largest active set seen during the sweep
	Comparisons int // Pairwise y tests performed
	Marked      int // Rectangles flagged as overlapping after the pass
}

// sweepEvent marks one vertical edge of a rectangle
// idx is the position in the input slice, not the rectangle ID
type sweepEvent struct {
	x     float64
	idx   int
	start bool
}

// compareEvents orders by x, then starts before ends, then by slice position
func compareEvents(a, b sweepEvent) int {
	switch {
	case a.x < b.x:
		return -1
	case a.x > b.x:
		return 1
	}
	if a.start != b.start {
		if a.start {
			return -1
		}
		return 1
	}
	return a.idx - b.idx
}

// ComputeOverlaps recomputes the Overlaps flag of every rectangle in place and returns the same slice
// An empty or nil collection is a no-op
func ComputeOverlaps(rects []geom.Rectangle) []geom.Rectangle {
	ComputeOverlapsStats(rects)
	return rects
}

// ComputeOverlapsStats is ComputeOverlaps that also reports pass statistics
func ComputeOverlapsStats(rects []geom.Rectangle) Stats {
	stats := Stats{Rects: len(rects)}

	// Flags are fully derived; nothing from a previous run survives
	for i := range rects {
		rects[i].Overlaps = false
	}
	if len(rects) == 0 {
		return stats
	}

	events := make([]sweepEvent, 0, len(rects)*2)
	for i := range rects {
		events = append(events,
			sweepEvent{x: rects[i].X, idx: i, start: true},
			sweepEvent{x: rects[i].Right(), idx: i, start: false},
		)
	}
	slices.SortFunc(events, compareEvents)
	stats.Events = len(events)

	active := newActiveSet(rects)

	for _, ev := range events {
		if !ev.start {
			active.remove(ev.idx)
			continue
		}

		r := &rects[ev.idx]
		active.each(func(aidx int) {
			stats.Comparisons++
			a := &rects[aidx]
			if a.Bottom() < r.Y || r.Bottom() < a.Y {
				return
			}
			a.Overlaps = true
			r.Overlaps = true
		})
		active.insert(ev.idx)

		if n := active.len(); n > stats.MaxActive {
			stats.MaxActive = n
		}
	}

	stats.Marked = geom.CountOverlapping(rects)
	return stats
}
