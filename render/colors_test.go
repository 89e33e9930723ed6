package render

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

// TestPaletteStable verifies an ID keeps its color and the seed changes it
func TestPaletteStable(t *testing.T) {
	p := NewPalette(1)
	first := p.Color(7)
	if again := p.Color(7); again != first {
		t.Errorf("Expected stable color for id 7, got %v then %v", first, again)
	}
	if other := NewPalette(1).Color(7); other != first {
		t.Errorf("Expected same color from equal seeds, got %v and %v", first, other)
	}
	if shifted := NewPalette(2).Color(7); shifted == first {
		t.Errorf("Expected different seed to change color %v", first)
	}
}

// TestPaletteDistinct verifies neighbouring IDs get different colors
func TestPaletteDistinct(t *testing.T) {
	p := NewPalette(1)
	seen := make(map[tcell.Color]int)
	for id := 0; id < 10; id++ {
		c := p.Color(id)
		if prev, ok := seen[c]; ok {
			t.Errorf("IDs %d and %d share color %v", prev, id, c)
		}
		seen[c] = id
	}
}

// TestPaletteAvoidsOverlapHue verifies normal rectangles never use the overlap color
func TestPaletteAvoidsOverlapHue(t *testing.T) {
	p := NewPalette(3)
	for id := -50; id < 200; id++ {
		if p.Color(id) == RgbOverlap {
			t.Fatalf("id %d got the overlap color", id)
		}
	}

	fg, _, _ := p.Style(1, true).Decompose()
	if fg != RgbOverlap {
		t.Errorf("Expected overlap style foreground %v, got %v", RgbOverlap, fg)
	}
	fg, _, _ = p.Style(1, false).Decompose()
	if fg != p.Color(1) {
		t.Errorf("Expected palette foreground %v, got %v", p.Color(1), fg)
	}
}
