package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func newFlagSet() *pflag.FlagSet {
	return pflag.NewFlagSet("rectlap", pflag.ContinueOnError)
}

// TestDefaultValid verifies the built-in settings pass validation
func TestDefaultValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

// TestLoadFile verifies TOML overlay, optional absence and unknown key rejection
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rectlap.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout = "shapes.yaml"
pool_size = 8
frame_interval = "20ms"
mute = true
`), 0644))

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path, true))
	assert.Equal(t, "shapes.yaml", cfg.Layout)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, 20*time.Millisecond, cfg.FrameInterval)
	assert.True(t, cfg.Mute)
	assert.Equal(t, path, cfg.Source)
	// Untouched fields keep defaults
	assert.Equal(t, 256, cfg.QueueSize)

	missing := filepath.Join(dir, "none.toml")
	cfg = Default()
	assert.NoError(t, cfg.LoadFile(missing, false))
	assert.Empty(t, cfg.Source)
	assert.Error(t, cfg.LoadFile(missing, true))

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("colour = \"red\"\n"), 0644))
	assert.ErrorContains(t, cfg.LoadFile(bad, true), "colour")
}

// TestApplyEnv verifies overrides and collection of malformed values
func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"RECTLAP_LAYOUT":         "env.json",
		"RECTLAP_HEADLESS":       "true",
		"RECTLAP_VOLUME":         "loud",
		"RECTLAP_POOL_SIZE":      "2",
		"RECTLAP_FRAME_INTERVAL": "soon",
		"RECTLAP_COLOR_SEED":     "42",
	}))

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, "env.json", cfg.Layout)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 80, cfg.Volume)
	assert.Equal(t, 2, cfg.PoolSize)
	assert.Equal(t, int64(42), cfg.ColorSeed)
}

// TestLoadPrecedence verifies defaults < file < env < flags
func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
layout = "file.json"
pool_size = 3
queue_size = 128
volume = 10
`), 0644))

	env := envMap(map[string]string{
		"RECTLAP_POOL_SIZE": "5",
		"RECTLAP_VOLUME":    "20",
	})
	args := []string{"--config", path, "--volume=30", "--headless"}

	cfg, err := Load(newFlagSet(), args, env)
	require.NoError(t, err)

	want := Default()
	want.Layout = "file.json"
	want.PoolSize = 5
	want.QueueSize = 128
	want.Volume = 30
	want.Headless = true
	want.Source = path
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

// TestLoadMissingExplicitConfig verifies a named config file must exist
func TestLoadMissingExplicitConfig(t *testing.T) {
	_, err := Load(newFlagSet(), []string{"-c", filepath.Join(t.TempDir(), "nope.toml")}, envMap(nil))
	assert.Error(t, err)
}

// TestLoadHelp verifies --help surfaces pflag.ErrHelp
func TestLoadHelp(t *testing.T) {
	fs := newFlagSet()
	fs.SetOutput(io.Discard)
	_, err := Load(fs, []string{"--help"}, envMap(nil))
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

// TestValidate verifies each rejected value is reported
func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Output = "xml"
	cfg.Volume = 101
	cfg.PoolSize = 0
	cfg.QueueSize = 0
	cfg.FrameInterval = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
}
