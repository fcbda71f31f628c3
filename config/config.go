// Package config provides configuration loading and access for the particle field.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/particlefield/field"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Field     FieldConfig     `yaml:"field"`
	Animation AnimationConfig `yaml:"animation"`
	Screen    ScreenConfig    `yaml:"screen"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FieldConfig holds the grid shape and attractor response.
type FieldConfig struct {
	Rows    int      `yaml:"rows"`
	Cols    int      `yaml:"cols"`
	Spacing int      `yaml:"spacing"`
	Margin  int      `yaml:"margin"`
	Radius  float64  `yaml:"radius"` // Squared influence radius
	Mouse   bool     `yaml:"mouse"`
	Color   [4]uint8 `yaml:"color"` // R, G, B, A
}

// AnimationConfig selects the procedural attractor path.
type AnimationConfig struct {
	Path   string       `yaml:"path"` // lissajous, orbit, wander, spring, fixed
	Orbit  OrbitConfig  `yaml:"orbit"`
	Wander WanderConfig `yaml:"wander"`
	Spring SpringConfig `yaml:"spring"`
	Fixed  FixedConfig  `yaml:"fixed"`
}

// OrbitConfig holds circular path parameters.
type OrbitConfig struct {
	Radius float64 `yaml:"radius"` // Fraction of the smaller surface dimension
	Speed  float64 `yaml:"speed"`  // Radians per second
}

// WanderConfig holds Perlin wander parameters.
type WanderConfig struct {
	Speed   float64 `yaml:"speed"` // Noise units per second
	Alpha   float64 `yaml:"alpha"`
	Beta    float64 `yaml:"beta"`
	Octaves int32   `yaml:"octaves"`
	Seed    int64   `yaml:"seed"` // 0 = time-based
}

// SpringConfig holds spring-chase parameters. The spring chases Target.
type SpringConfig struct {
	Target    string  `yaml:"target"` // Path the spring follows
	FPS       int     `yaml:"fps"`
	Frequency float64 `yaml:"frequency"`
	Damping   float64 `yaml:"damping"`
}

// FixedConfig pins the attractor at a fraction of the surface size.
type FixedConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Backend   string `yaml:"backend"` // raylib, terminal, headless
	Title     string `yaml:"title"`
	TargetFPS int    `yaml:"target_fps"`
	Scale     int    `yaml:"scale"` // Window pixels per surface pixel
}

// ParallelConfig holds physics worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Minimum particles for parallel stepping
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	ExcitedThreshold    float64 `yaml:"excited_threshold"` // Displacement (px) counted as excited
}

// OutputConfig holds experiment output settings.
type OutputConfig struct {
	FrameEvery int `yaml:"frame_every"` // Ticks between PNG frames (0 = off)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumParticles  int
	SurfaceWidth  int
	SurfaceHeight int
	StatsTicks    int // Telemetry.StatsWindow converted to ticks at Screen.TargetFPS
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects shapes that cannot be rasterized.
func (c *Config) validate() error {
	f := c.Field
	if f.Rows < 1 || f.Cols < 1 {
		return fmt.Errorf("field: rows and cols must be positive, got %dx%d", f.Rows, f.Cols)
	}
	if f.Spacing < 0 || f.Margin < 0 {
		return fmt.Errorf("field: spacing and margin must not be negative")
	}
	// Keep frames within one GPU texture.
	w, h := f.Cols*f.Spacing+2*f.Margin, f.Rows*f.Spacing+2*f.Margin
	if w > 1<<16 || h > 1<<16 {
		return fmt.Errorf("field: surface %dx%d exceeds 65536 pixels per side", w, h)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumParticles = c.Field.Rows * c.Field.Cols
	c.Derived.SurfaceWidth = c.Field.Cols*c.Field.Spacing + 2*c.Field.Margin
	c.Derived.SurfaceHeight = c.Field.Rows*c.Field.Spacing + 2*c.Field.Margin

	if c.Screen.Scale < 1 {
		c.Screen.Scale = 1
	}

	fps := c.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.StatsTicks = int(c.Telemetry.StatsWindow * float64(fps))
	if c.Derived.StatsTicks < 1 {
		c.Derived.StatsTicks = 1
	}
}

// FieldOptions converts the field section to simulator options.
func (c *Config) FieldOptions() []field.Option {
	f := c.Field
	return []field.Option{
		field.WithGrid(f.Rows, f.Cols),
		field.WithSpacing(f.Spacing),
		field.WithMargin(f.Margin),
		field.WithRadius(f.Radius),
		field.WithMouse(f.Mouse),
		field.WithColor(f.Color[0], f.Color[1], f.Color[2], f.Color[3]),
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
