// Package config resolves program settings from defaults, a TOML file, RECTLAP_* environment
// variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

const (
	// DefaultConfigPath is read when present and --config is not given
	DefaultConfigPath = "rectlap.toml"
	// EnvPrefix namespaces every environment override
	EnvPrefix = "RECTLAP_"

	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds every tunable of the rectlap command
type Config struct {
	Layout        string        `toml:"layout"`
	Headless      bool          `toml:"headless"`
	Output        string        `toml:"output"`
	DetectOnStart bool          `toml:"detect_on_start"`
	Watch         bool          `toml:"watch"`
	Debug         bool          `toml:"debug"`
	Verbosity     int           `toml:"verbosity"`
	Mute          bool          `toml:"mute"`
	Volume        int           `toml:"volume"` // 0-100
	PoolSize      int           `toml:"pool_size"`
	MaxPending    int           `toml:"max_pending"`
	QueueSize     int           `toml:"queue_size"`
	MetricsAddr   string        `toml:"metrics_addr"`
	FrameInterval time.Duration `toml:"frame_interval"`
	ColorSeed     int64         `toml:"color_seed"`

	// Source is the config file that was applied, empty when none
	Source string `toml:"-"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Layout:        "rects.json",
		Output:        OutputTable,
		DetectOnStart: false,
		Watch:         true,
		Volume:        80,
		PoolSize:      4,
		MaxPending:    64,
		QueueSize:     256,
		FrameInterval: 50 * time.Millisecond,
		ColorSeed:     1,
	}
}

// LoadFile overlays a TOML file onto c
// A missing file is an error only when required; unknown keys are rejected
func (c *Config) LoadFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Source = path
	return nil
}

// ApplyEnv overlays RECTLAP_* variables found through lookup
// Every malformed value is reported; valid ones are still applied
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("LAYOUT", &c.Layout)
	boolean("HEADLESS", &c.Headless)
	str("OUTPUT", &c.Output)
	boolean("DETECT_ON_START", &c.DetectOnStart)
	boolean("WATCH", &c.Watch)
	boolean("DEBUG", &c.Debug)
	integer("VERBOSITY", &c.Verbosity)
	boolean("MUTE", &c.Mute)
	integer("VOLUME", &c.Volume)
	integer("POOL_SIZE", &c.PoolSize)
	integer("MAX_PENDING", &c.MaxPending)
	integer("QUEUE_SIZE", &c.QueueSize)
	str("METRICS_ADDR", &c.MetricsAddr)

	if v, ok := lookup(EnvPrefix + "FRAME_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%sFRAME_INTERVAL: %w", EnvPrefix, err))
		} else {
			c.FrameInterval = d
		}
	}
	if v, ok := lookup(EnvPrefix + "COLOR_SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%sCOLOR_SEED: %w", EnvPrefix, err))
		} else {
			c.ColorSeed = n
		}
	}

	return errs
}

// AddFlags binds the fields to flags; current values become the flag defaults
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Layout, "layout", "l", c.Layout, "Layout file (JSON or YAML sequence of {id,x,y,w,h})")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "Run one detection pass and print the result instead of opening the terminal UI")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "Headless output format: table or json")
	fs.BoolVar(&c.DetectOnStart, "detect", c.DetectOnStart, "Start a detection pass as soon as the UI opens")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Reload the layout when the file changes")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Write logs to logs/rectlap.log")
	fs.IntVarP(&c.Verbosity, "v", "v", c.Verbosity, "Log verbosity (0 info, 1 debug, 2 trace)")
	fs.BoolVar(&c.Mute, "mute", c.Mute, "Disable the completion cue")
	fs.IntVar(&c.Volume, "volume", c.Volume, "Cue volume (0-100)")
	fs.IntVar(&c.PoolSize, "pool-size", c.PoolSize, "Worker pool size")
	fs.IntVar(&c.MaxPending, "max-pending", c.MaxPending, "Maximum detection passes awaiting delivery")
	fs.IntVar(&c.QueueSize, "queue-size", c.QueueSize, "Capacity of the input and layout event queue")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve prometheus metrics on this address (empty disables)")
	fs.DurationVar(&c.FrameInterval, "frame-interval", c.FrameInterval, "Redraw interval")
	fs.Int64Var(&c.ColorSeed, "color-seed", c.ColorSeed, "Seed for the rectangle palette")
}

// Validate checks for invalid or conflicting values
func (c *Config) Validate() error {
	var errs error
	if c.Layout == "" {
		errs = multierr.Append(errs, errors.New("layout path is empty"))
	}
	if c.Output != OutputTable && c.Output != OutputJSON {
		errs = multierr.Append(errs, fmt.Errorf("invalid output %q: must be %s or %s", c.Output, OutputTable, OutputJSON))
	}
	if c.Volume < 0 || c.Volume > 100 {
		errs = multierr.Append(errs, fmt.Errorf("invalid volume %d: must be between 0 and 100", c.Volume))
	}
	if c.PoolSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("invalid pool size %d: must be >= 1", c.PoolSize))
	}
	if c.MaxPending < 1 {
		errs = multierr.Append(errs, fmt.Errorf("invalid max pending %d: must be >= 1", c.MaxPending))
	}
	if c.QueueSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("invalid queue size %d: must be >= 1", c.QueueSize))
	}
	if c.FrameInterval <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid frame interval %s", c.FrameInterval))
	}
	if c.Verbosity < 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid verbosity %d: must be >= 0", c.Verbosity))
	}
	return errs
}

// Load resolves the configuration for args
// --config is located first so the file sits below the environment and the remaining flags
// A pflag.ErrHelp result means usage was printed
func Load(fs *pflag.FlagSet, args []string, lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	configPath := DefaultConfigPath
	pre := pflag.NewFlagSet("config", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.SetOutput(io.Discard)
	pre.StringVarP(&configPath, "config", "c", configPath, "")
	_ = pre.Parse(args) // Errors resurface in the full parse
	explicit := pre.Changed("config")

	cfg := Default()
	if err := cfg.LoadFile(configPath, explicit); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, err
	}

	var ignored string
	fs.StringVarP(&ignored, "config", "c", configPath, "TOML config file")
	cfg.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
