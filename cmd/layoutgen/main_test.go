package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/rectlap/layout"
)

// TestRunWritesLayout verifies a seeded run is reproducible and loadable
func TestRunWritesLayout(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.json")

	require.Equal(t, 0, run([]string{"--count", "12", "--seed", "5", "--out", a}))
	require.Equal(t, 0, run([]string{"-n", "12", "--seed", "5", "-o", b}))

	ra, err := layout.Load(a)
	require.NoError(t, err)
	rb, err := layout.Load(b)
	require.NoError(t, err)

	assert.Len(t, ra, 12)
	assert.Equal(t, layout.Fingerprint(ra), layout.Fingerprint(rb))
}

// TestRunRejectsBadFlags verifies usage errors exit with 2
func TestRunRejectsBadFlags(t *testing.T) {
	assert.Equal(t, 2, run([]string{"--count", "-1"}))
	assert.Equal(t, 2, run([]string{"--min-size", "200"}))
	assert.Equal(t, 2, run([]string{"--nope"}))
}
