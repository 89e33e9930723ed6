package event

import (
	"github.com/lixenwraith/rectlap/geom"
)

// LayoutChangedPayload carries a freshly loaded layout
type LayoutChangedPayload struct {
	Path        string
	Rects       []geom.Rectangle
	Fingerprint uint64
}

// LayoutErrorPayload carries a reload failure
type LayoutErrorPayload struct {
	Path string
	Err  error
}
