// Package layout reads, fingerprints, generates and watches rectangle layout files.
package layout

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/cespare/xxhash/v2"
	yaml "sigs.k8s.io/yaml/goyaml.v3"

	"github.com/lixenwraith/rectlap/geom"
)

// Field defaults for records that omit them
const (
	DefaultID     = 0
	DefaultX      = 0.0
	DefaultY      = 0.0
	DefaultWidth  = 50.0
	DefaultHeight = 50.0
)

// record mirrors one input entry; pointers distinguish missing from zero
// Decoded with YAML 1.2 rules, where a bare y key is a string and not a boolean
type record struct {
	ID *int     `yaml:"id"`
	X  *float64 `yaml:"x"`
	Y  *float64 `yaml:"y"`
	W  *float64 `yaml:"w"`
	H  *float64 `yaml:"h"`
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Parse decodes a JSON or YAML sequence of rectangle records
// Keys are case-sensitive; unknown keys are ignored
// Missing fields take the package defaults; no other validation is done
func Parse(data []byte) ([]geom.Rectangle, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	rects := make([]geom.Rectangle, 0, len(records))
	for _, rec := range records {
		rects = append(rects, geom.Rectangle{
			ID: valueOr(rec.ID, DefaultID),
			X:  valueOr(rec.X, DefaultX),
			Y:  valueOr(rec.Y, DefaultY),
			W:  valueOr(rec.W, DefaultWidth),
			H:  valueOr(rec.H, DefaultHeight),
		})
	}
	return rects, nil
}

// Load reads and parses a layout file
func Load(path string) ([]geom.Rectangle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	rects, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return rects, nil
}

// Fingerprint hashes the geometry of a layout in order
// Overlap flags are excluded so a detection pass does not change it
func Fingerprint(rects []geom.Rectangle) uint64 {
	d := xxhash.New()
	var buf [40]byte
	for _, r := range rects {
		binary.LittleEndian.PutUint64(buf[0:], uint64(int64(r.ID)))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(r.X))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(r.Y))
		binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(r.W))
		binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(r.H))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
