package field

import (
	"runtime"
	"time"
)

// Default option values.
const (
	DefaultRows    = 100
	DefaultCols    = 240
	DefaultSpacing = 4
	DefaultMargin  = 40
	DefaultRadius  = 50 * 50 // squared
)

// Options configures a Simulator. Shape fields (Rows, Cols, Spacing, Margin)
// only take effect on the next Draw.
type Options struct {
	Rows    int
	Cols    int
	Spacing int
	Margin  int

	// Radius is the squared influence radius of the attractor.
	Radius float64

	// Mouse controls whether pointer input is accepted.
	Mouse bool

	// Color is written as R, G, B, A for every particle.
	Color [4]uint8

	// Animation replaces the default attractor path when not in manual mode.
	Animation AnimationFunc
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		Rows:    DefaultRows,
		Cols:    DefaultCols,
		Spacing: DefaultSpacing,
		Margin:  DefaultMargin,
		Radius:  DefaultRadius,
		Mouse:   true,
		Color:   [4]uint8{0, 0, 0, 255},
	}
}

// NumParticles returns rows*cols for the current shape.
func (o Options) NumParticles() int {
	return o.Rows * o.Cols
}

// SurfaceSize returns the drawing surface dimensions for the current shape.
func (o Options) SurfaceSize() (width, height int) {
	width = o.Cols*o.Spacing + o.Margin*2
	height = o.Rows*o.Spacing + o.Margin*2
	return width, height
}

// Option overwrites one or more fields of Options.
type Option func(*Options)

// WithOptions overwrites every field with the given value.
func WithOptions(o Options) Option {
	return func(dst *Options) { *dst = o }
}

// WithGrid sets the grid shape.
func WithGrid(rows, cols int) Option {
	return func(o *Options) {
		o.Rows = rows
		o.Cols = cols
	}
}

// WithSpacing sets the pixel distance between rest positions.
func WithSpacing(spacing int) Option {
	return func(o *Options) { o.Spacing = spacing }
}

// WithMargin sets the pixel border around the grid.
func WithMargin(margin int) Option {
	return func(o *Options) { o.Margin = margin }
}

// WithRadius sets the squared influence radius.
func WithRadius(radiusSq float64) Option {
	return func(o *Options) { o.Radius = radiusSq }
}

// WithRadiusPixels sets the influence radius from a distance in pixels.
func WithRadiusPixels(r float64) Option {
	return func(o *Options) { o.Radius = r * r }
}

// WithMouse enables or disables pointer input.
func WithMouse(enabled bool) Option {
	return func(o *Options) { o.Mouse = enabled }
}

// WithColor sets the particle colour.
func WithColor(r, g, b, a uint8) Option {
	return func(o *Options) { o.Color = [4]uint8{r, g, b, a} }
}

// WithAnimation sets a custom attractor path.
func WithAnimation(fn AnimationFunc) Option {
	return func(o *Options) { o.Animation = fn }
}

// settings holds simulator wiring that is not part of the user-visible Options.
type settings struct {
	options           []Option
	scheduler         Scheduler
	clock             func() time.Time
	epoch             time.Time
	workers           int
	parallelThreshold int
	hooks             []TickHook
	observer          PhaseObserver
	onPresentError    func(error)
}

func defaultSettings() settings {
	return settings{
		clock:             time.Now,
		epoch:             time.Unix(0, 0),
		workers:           runtime.GOMAXPROCS(0),
		parallelThreshold: defaultParallelThreshold,
	}
}

// Setting configures a Simulator at construction time.
type Setting func(*settings)

// Configure applies options over the defaults when the simulator is created.
func Configure(opts ...Option) Setting {
	return func(st *settings) { st.options = append(st.options, opts...) }
}

// WithScheduler injects the display-refresh scheduler. Defaults to a TimerScheduler.
func WithScheduler(s Scheduler) Setting {
	return func(st *settings) { st.scheduler = s }
}

// WithClock replaces time.Now for the default attractor path.
func WithClock(clock func() time.Time) Setting {
	return func(st *settings) { st.clock = clock }
}

// WithWorkers sets the physics worker count. Values below 2 disable the pool.
func WithWorkers(n int) Setting {
	return func(st *settings) { st.workers = n }
}

// WithParallelThreshold sets the minimum particle count for parallel stepping.
func WithParallelThreshold(n int) Setting {
	return func(st *settings) { st.parallelThreshold = n }
}

// WithTickHook registers a hook run at the end of every tick.
func WithTickHook(h TickHook) Setting {
	return func(st *settings) { st.hooks = append(st.hooks, h) }
}

// WithPhaseObserver registers a per-phase timing observer.
func WithPhaseObserver(o PhaseObserver) Setting {
	return func(st *settings) { st.observer = o }
}

// WithPresentErrorHandler is called when Surface.Present fails.
func WithPresentErrorHandler(fn func(error)) Setting {
	return func(st *settings) { st.onPresentError = fn }
}
