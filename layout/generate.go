package layout

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/lixenwraith/rectlap/geom"
)

// GenerateOptions bounds randomly generated layouts
type GenerateOptions struct {
	Count      int
	MaxX, MaxY float64
	MinSize    float64
	MaxSize    float64
}

// DefaultGenerateOptions matches the sample layout: 50 rectangles on a 700x500 canvas
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Count:   50,
		MaxX:    700,
		MaxY:    500,
		MinSize: 20,
		MaxSize: 150,
	}
}

// Generate creates Count rectangles with sequential IDs
// The first two are pinned to (100,100) and (120,120) so every sample has at least one overlap
func Generate(rnd *rand.Rand, opts GenerateOptions) []geom.Rectangle {
	rects := make([]geom.Rectangle, opts.Count)
	span := opts.MaxSize - opts.MinSize
	for i := range rects {
		rects[i] = geom.Rectangle{
			ID: i,
			X:  rnd.Float64() * opts.MaxX,
			Y:  rnd.Float64() * opts.MaxY,
			W:  opts.MinSize + rnd.Float64()*span,
			H:  opts.MinSize + rnd.Float64()*span,
		}
	}
	if len(rects) > 0 {
		rects[0].X, rects[0].Y = 100, 100
	}
	if len(rects) > 1 {
		rects[1].X, rects[1].Y = 120, 120
	}
	return rects
}

// Encode renders rectangles as indented JSON, or YAML when the path ends in .yaml/.yml
func Encode(path string, rects []geom.Rectangle) ([]byte, error) {
	if rects == nil {
		rects = []geom.Rectangle{}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(rects)
	default:
		out, err := json.MarshalIndent(rects, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
}

// Write encodes rectangles to path, creating parent directories
func Write(path string, rects []geom.Rectangle) error {
	data, err := Encode(path, rects)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create layout directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write layout %s: %w", path, err)
	}
	return nil
}
