// Package geom holds the rectangle entity shared by the engine, the model and the loaders.
package geom

import (
	"fmt"
	"math"
)

// Rectangle is an axis-aligned rectangle with its top-left corner at (X, Y)
// Overlaps is derived: the engine recomputes it on every run and input never sets it
type Rectangle struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Overlaps bool    `json:"-"`
}

// Right returns the x coordinate of the right edge
func (r Rectangle) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y coordinate of the bottom edge
func (r Rectangle) Bottom() float64 {
	return r.Y + r.H
}

// Degenerate reports a zero or negative width or height
// Degenerate rectangles are still processed; this is for diagnostics
func (r Rectangle) Degenerate() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the point lies inside or on the border
func (r Rectangle) Contains(px, py float64) bool {
	return px >= r.X && px <= r.Right() && py >= r.Y && py <= r.Bottom()
}

func (r Rectangle) String() string {
	return fmt.Sprintf("#%d(%g,%g %gx%g)", r.ID, r.X, r.Y, r.W, r.H)
}

// Clone returns an independent copy of the collection
func Clone(rs []Rectangle) []Rectangle {
	if rs == nil {
		return nil
	}
	out := make([]Rectangle, len(rs))
	copy(out, rs)
	return out
}

// CountOverlapping returns the number of rectangles flagged as overlapping
func CountOverlapping(rs []Rectangle) int {
	n := 0
	for i := range rs {
		if rs[i].Overlaps {
			n++
		}
	}
	return n
}

// Extent returns the bounding box of the collection as min and max corners
// Negative sizes are normalized so the box always covers both edges
// An empty collection yields all zeros
func Extent(rs []Rectangle) (minX, minY, maxX, maxY float64) {
	if len(rs) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, r := range rs {
		minX = min(minX, r.X, r.Right())
		minY = min(minY, r.Y, r.Bottom())
		maxX = max(maxX, r.X, r.Right())
		maxY = max(maxY, r.Y, r.Bottom())
	}
	return minX, minY, maxX, maxY
}
