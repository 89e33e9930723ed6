package render

import (
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// RGB color definitions
var (
	RgbBackground  = tcell.NewRGBColor(26, 27, 38)    // Tokyo Night background
	RgbOverlap     = tcell.NewRGBColor(255, 80, 80)   // Normal Red
	RgbOverlapFill = tcell.NewRGBColor(90, 25, 25)    // Very dark red
	RgbLabel       = tcell.NewRGBColor(180, 180, 180) // Brighter gray
	RgbAxis        = tcell.NewRGBColor(60, 60, 70)    // Dim gray

	// Status bar
	RgbStatusText     = tcell.NewRGBColor(0, 0, 0)       // Dark text for status
	RgbStatusIdleBg   = tcell.NewRGBColor(135, 206, 250) // Light sky blue
	RgbStatusBusyBg   = tcell.NewRGBColor(255, 165, 0)   // Orange while passes are in flight
	RgbStatusErrorBg  = tcell.NewRGBColor(200, 50, 50)   // Red for errors
	RgbStatusClearBg  = tcell.NewRGBColor(144, 238, 144) // Light grass green
	RgbStatusInfoText = tcell.NewRGBColor(255, 255, 255) // White
)

// goldenAngle spreads consecutive IDs around the hue circle
const goldenAngle = 137.50776405003785

// Palette assigns each rectangle ID a stable, distinct color
// The seed rotates the whole hue circle
type Palette struct {
	offset float64
	cache  map[int]tcell.Color
}

// NewPalette creates a palette for seed
func NewPalette(seed int64) *Palette {
	return &Palette{
		offset: math.Mod(float64(seed)*goldenAngle, 360),
		cache:  make(map[int]tcell.Color),
	}
}

// Color returns the color for id
func (p *Palette) Color(id int) tcell.Color {
	if c, ok := p.cache[id]; ok {
		return c
	}
	hue := math.Mod(p.offset+float64(id)*goldenAngle, 360)
	if hue < 0 {
		hue += 360
	}
	// Hue band around red is reserved for overlaps
	if hue < 20 || hue > 340 {
		hue = math.Mod(hue+40, 360)
	}
	r, g, b := colorful.Hcl(hue, 0.45, 0.75).Clamped().RGB255()
	c := tcell.NewRGBColor(int32(r), int32(g), int32(b))
	p.cache[id] = c
	return c
}

// Style returns the border style for a rectangle
func (p *Palette) Style(id int, overlaps bool) tcell.Style {
	base := tcell.StyleDefault.Background(RgbBackground)
	if overlaps {
		return base.Foreground(RgbOverlap).Bold(true)
	}
	return base.Foreground(p.Color(id))
}
