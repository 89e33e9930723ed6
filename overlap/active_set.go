package overlap

import (
	"github.com/google/btree"

	"github.com/lixenwraith/rectlap/geom"
)

// activeDegree is the B-tree node degree; active sets are small so a low degree keeps nodes cache-sized
const activeDegree = 16

// activeEntry keys a rectangle in the active set by its top edge
// idx breaks ties so rectangles sharing a y coordinate stay distinct members
type activeEntry struct {
	y   float64
	idx int
}

func lessActive(a, b activeEntry) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	return a.idx < b.idx
}

// activeSet holds the rectangles whose x-interval spans the sweep position, ordered by y
// Ordering is for scan locality only; correctness depends on membership
type activeSet struct {
	rects []geom.Rectangle
	tree  *btree.BTreeG[activeEntry]
}

func newActiveSet(rects []geom.Rectangle) *activeSet {
	return &activeSet{
		rects: rects,
		tree:  btree.NewG[activeEntry](activeDegree, lessActive),
	}
}

func (s *activeSet) key(idx int) activeEntry {
	return activeEntry{y: s.rects[idx].Y, idx: idx}
}

// insert adds idx; O(log n)
func (s *activeSet) insert(idx int) {
	s.tree.ReplaceOrInsert(s.key(idx))
}

// remove deletes idx if present; removing an absent member is a no-op
func (s *activeSet) remove(idx int) {
	s.tree.Delete(s.key(idx))
}

// each visits members in ascending y order
func (s *activeSet) each(fn func(idx int)) {
	s.tree.Ascend(func(e activeEntry) bool {
		fn(e.idx)
		return true
	})
}

func (s *activeSet) len() int {
	return s.tree.Len()
}
