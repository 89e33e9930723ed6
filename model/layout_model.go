// Package model exposes the published rectangle collection as a read-only table for presentation.
package model

import (
	"sync"

	"github.com/lixenwraith/rectlap/geom"
)

// Role names one column of a row
type Role int

const (
	RoleID Role = iota
	RoleRectX
	RoleRectY
	RoleRectW
	RoleRectH
	RoleOverlaps
)

// roleNames avoid clashing with view-level x/y/width/height
var roleNames = map[Role]string{
	RoleID:       "id",
	RoleRectX:    "rectX",
	RoleRectY:    "rectY",
	RoleRectW:    "rectW",
	RoleRectH:    "rectH",
	RoleOverlaps: "overlaps",
}

// Roles lists every column in display order
var Roles = []Role{RoleID, RoleRectX, RoleRectY, RoleRectW, RoleRectH, RoleOverlaps}

func (r Role) String() string {
	return roleNames[r]
}

// RoleNames returns the column name of every role
func RoleNames() map[Role]string {
	out := make(map[Role]string, len(roleNames))
	for k, v := range roleNames {
		out[k] = v
	}
	return out
}

// ResetNotice is sent to observers after every ReplaceAll
type ResetNotice struct {
	Revision    uint64
	Rows        int
	Overlapping int
}

// LayoutModel holds the collection visible to the presentation layer
// Reads are safe from any goroutine; ReplaceAll is the only mutation
type LayoutModel struct {
	mu          sync.RWMutex
	rects       []geom.Rectangle
	overlapping int
	revision    uint64

	obsMu     sync.Mutex
	observers map[int]func(ResetNotice)
	nextObs   int
}

// NewLayoutModel creates an empty model
func NewLayoutModel() *LayoutModel {
	return &LayoutModel{
		observers: make(map[int]func(ResetNotice)),
	}
}

// ReplaceAll swaps the whole collection and notifies observers with a full reset
// The model keeps its own copy
func (m *LayoutModel) ReplaceAll(rects []geom.Rectangle) {
	owned := geom.Clone(rects)
	overlapping := geom.CountOverlapping(owned)

	m.mu.Lock()
	m.rects = owned
	m.overlapping = overlapping
	m.revision++
	notice := ResetNotice{Revision: m.revision, Rows: len(owned), Overlapping: overlapping}
	m.mu.Unlock()

	m.obsMu.Lock()
	observers := make([]func(ResetNotice), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range observers {
		fn(notice)
	}
}

// Subscribe registers a reset observer; the returned func removes it
func (m *LayoutModel) Subscribe(fn func(ResetNotice)) (unsubscribe func()) {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

// RowCount returns the number of rectangles
func (m *LayoutModel) RowCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rects)
}

// Data returns one field of one row
// Out-of-range rows and unknown roles yield (nil, false)
func (m *LayoutModel) Data(row int, role Role) (any, bool) {
	r, ok := m.Row(row)
	if !ok {
		return nil, false
	}
	switch role {
	case RoleID:
		return r.ID, true
	case RoleRectX:
		return r.X, true
	case RoleRectY:
		return r.Y, true
	case RoleRectW:
		return r.W, true
	case RoleRectH:
		return r.H, true
	case RoleOverlaps:
		return r.Overlaps, true
	default:
		return nil, false
	}
}

// Row returns a copy of one rectangle
func (m *LayoutModel) Row(row int) (geom.Rectangle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row < 0 || row >= len(m.rects) {
		return geom.Rectangle{}, false
	}
	return m.rects[row], true
}

// Snapshot returns a copy of the whole collection
func (m *LayoutModel) Snapshot() []geom.Rectangle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return geom.Clone(m.rects)
}

// OverlapCount returns rows flagged as overlapping
func (m *LayoutModel) OverlapCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overlapping
}

// Revision returns the number of resets so far
func (m *LayoutModel) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}
