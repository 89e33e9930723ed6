// Package render draws the published rectangle collection and a status bar on a tcell screen.
package render

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/rectlap/geom"
)

// Source is the read side of the published collection
type Source interface {
	Snapshot() []geom.Rectangle
	Revision() uint64
	OverlapCount() int
}

// Status is the loop state shown in the bottom row
type Status struct {
	Layout      string
	Fingerprint uint64
	InFlight    int
	Pending     int
	Muted       bool
	Message     string
	Error       bool
}

// TerminalRenderer handles all terminal rendering
type TerminalRenderer struct {
	screen  tcell.Screen
	palette *Palette
}

// NewTerminalRenderer creates a renderer; seed selects the palette rotation
func NewTerminalRenderer(screen tcell.Screen, seed int64) *TerminalRenderer {
	return &TerminalRenderer{
		screen:  screen,
		palette: NewPalette(seed),
	}
}

// viewport maps layout coordinates onto the canvas cells
type viewport struct {
	minX, minY     float64
	scaleX, scaleY float64
	width, height  int
}

func newViewport(rects []geom.Rectangle, width, height int) viewport {
	minX, minY, maxX, maxY := geom.Extent(rects)
	vp := viewport{minX: minX, minY: minY, width: width, height: height, scaleX: 1, scaleY: 1}
	if spanX := maxX - minX; spanX > 0 && width > 1 {
		vp.scaleX = float64(width-1) / spanX
	}
	if spanY := maxY - minY; spanY > 0 && height > 1 {
		vp.scaleY = float64(height-1) / spanY
	}
	return vp
}

func (vp viewport) col(x float64) int {
	return int(math.Round((x - vp.minX) * vp.scaleX))
}

func (vp viewport) row(y float64) int {
	return int(math.Round((y - vp.minY) * vp.scaleY))
}

// cellBox returns the normalized cell corners of r; negative sizes are drawn mirrored
func (vp viewport) cellBox(r geom.Rectangle) (x0, y0, x1, y1 int) {
	x0, x1 = vp.col(r.X), vp.col(r.Right())
	y0, y1 = vp.row(r.Y), vp.row(r.Bottom())
	return min(x0, x1), min(y0, y1), max(x0, x1), max(y0, y1)
}

// RenderFrame draws the whole frame and shows it
func (r *TerminalRenderer) RenderFrame(src Source, st Status) {
	r.screen.Clear()
	width, height := r.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}
	defaultStyle := tcell.StyleDefault.Background(RgbBackground)
	r.fill(0, 0, width-1, height-1, ' ', defaultStyle)

	rects := src.Snapshot()
	canvasHeight := height - 1
	if canvasHeight > 0 && len(rects) > 0 {
		vp := newViewport(rects, width, canvasHeight)

		// Overlapping rectangles last so their borders stay visible
		for _, rect := range rects {
			if !rect.Overlaps {
				r.drawRect(vp, rect)
			}
		}
		for _, rect := range rects {
			if rect.Overlaps {
				r.drawRect(vp, rect)
			}
		}
	}

	r.drawStatusBar(src, len(rects), st, width, height-1, defaultStyle)
	r.screen.Show()
}

// drawRect draws a border and, for overlapping rectangles, a shaded interior
func (r *TerminalRenderer) drawRect(vp viewport, rect geom.Rectangle) {
	x0, y0, x1, y1 := vp.cellBox(rect)
	style := r.palette.Style(rect.ID, rect.Overlaps)

	if rect.Overlaps && x1-x0 > 1 && y1-y0 > 1 {
		r.fill(x0+1, y0+1, x1-1, y1-1, '░', tcell.StyleDefault.Background(RgbOverlapFill).Foreground(RgbOverlap))
	}

	switch {
	case x0 == x1 && y0 == y1:
		r.set(x0, y0, '·', style)
	case y0 == y1:
		for x := x0; x <= x1; x++ {
			r.set(x, y0, '─', style)
		}
	case x0 == x1:
		for y := y0; y <= y1; y++ {
			r.set(x0, y, '│', style)
		}
	default:
		for x := x0 + 1; x < x1; x++ {
			r.set(x, y0, '─', style)
			r.set(x, y1, '─', style)
		}
		for y := y0 + 1; y < y1; y++ {
			r.set(x0, y, '│', style)
			r.set(x1, y, '│', style)
		}
		r.set(x0, y0, '┌', style)
		r.set(x1, y0, '┐', style)
		r.set(x0, y1, '└', style)
		r.set(x1, y1, '┘', style)
	}

	// ID label inside the top border when it fits
	label := fmt.Sprintf("%d", rect.ID)
	if x1-x0-1 >= len(label) && y1 > y0 {
		r.text(x0+1, y0, label, style)
	}
}

// drawStatusBar draws the status bar on row y
func (r *TerminalRenderer) drawStatusBar(src Source, count int, st Status, width, y int, defaultStyle tcell.Style) {
	if y < 0 {
		return
	}

	overlapping := src.OverlapCount()
	var (
		badge   string
		badgeBg tcell.Color
	)
	switch {
	case st.Error:
		badge, badgeBg = " ERROR ", RgbStatusErrorBg
	case st.InFlight > 0 || st.Pending > 0:
		badge, badgeBg = " DETECTING ", RgbStatusBusyBg
	case overlapping > 0:
		badge, badgeBg = " OVERLAP ", RgbOverlap
	default:
		badge, badgeBg = " CLEAR ", RgbStatusClearBg
	}
	if src.Revision() == 0 && !st.Error && st.InFlight == 0 && st.Pending == 0 {
		badge, badgeBg = " READY ", RgbStatusIdleBg
	}

	x := r.text(0, y, badge, tcell.StyleDefault.Background(badgeBg).Foreground(RgbStatusText))

	infoStyle := defaultStyle.Foreground(RgbStatusInfoText)
	if st.Message != "" {
		msgStyle := infoStyle
		if st.Error {
			msgStyle = msgStyle.Foreground(RgbStatusErrorBg).Bold(true)
		}
		x = r.textClipped(x, y, width, " "+st.Message+" |", msgStyle)
	}

	info := fmt.Sprintf(" %d rects  %d overlapping  rev %d  fp %016x  jobs %d/%d",
		count, overlapping, src.Revision(), st.Fingerprint, st.InFlight, st.Pending)
	if st.Muted {
		info += "  muted"
	}
	if st.Layout != "" {
		info += "  " + filepath.Base(st.Layout)
	}
	r.textClipped(x, y, width, info, infoStyle)
}

func (r *TerminalRenderer) set(x, y int, ch rune, style tcell.Style) {
	r.screen.SetContent(x, y, ch, nil, style)
}

func (r *TerminalRenderer) fill(x0, y0, x1, y1 int, ch rune, style tcell.Style) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

// text draws s from x and returns the column after it
func (r *TerminalRenderer) text(x, y int, s string, style tcell.Style) int {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}

// textClipped is text limited to columns below width
func (r *TerminalRenderer) textClipped(x, y, width int, s string, style tcell.Style) int {
	for _, ch := range s {
		if x >= width {
			return x
		}
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}
