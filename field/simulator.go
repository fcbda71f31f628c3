// Package field simulates a grid of particles pushed around by a moving
// attractor and pulled back to their rest positions, rasterized into an RGBA
// framebuffer once per tick.
package field

import (
	"errors"
	"image"
	"reflect"
	"sync"
)

var (
	// ErrNoSurface is returned by Draw when no surface is supplied.
	ErrNoSurface = errors.New("field: no drawing surface")
	// ErrClosed is returned by Draw and Start after Close.
	ErrClosed = errors.New("field: simulator closed")
)

// Surface is the display the simulator draws into.
type Surface interface {
	// Resize sizes the surface to the grid's dimensions.
	Resize(width, height int) error
	// Present shows a completed frame. The frame is reused on the next tick.
	Present(frame *image.RGBA) error
}

// Phase names reported to a PhaseObserver.
const (
	PhaseAttractor = "attractor"
	PhasePhysics   = "physics"
	PhaseRaster    = "raster"
	PhasePresent   = "present"
)

// PhaseObserver receives tick and phase boundaries.
type PhaseObserver interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

// TickInfo describes a completed tick. Grid and Frame are only valid for the
// duration of the hook.
type TickInfo struct {
	Tick      uint64
	Attractor Point
	Manual    bool
	Options   Options
	Grid      *Grid
	Frame     *image.RGBA
}

// TickHook runs at the end of every tick while the simulator is locked.
type TickHook func(TickInfo)

// Simulator owns the particle grid, the attractor state and the tick loop.
type Simulator struct {
	mu sync.Mutex

	opts     Options
	settings settings

	surface Surface
	grid    *Grid
	frame   *image.RGBA
	pool    *workerPool

	attractor Point
	manual    bool
	running   bool
	closed    bool
	ticks     uint64

	tickFn func()
}

// New creates a simulator. Nothing is allocated for the grid until Draw.
func New(opts ...Setting) *Simulator {
	st := defaultSettings()
	for _, apply := range opts {
		apply(&st)
	}
	if st.scheduler == nil {
		st.scheduler = NewTimerScheduler(FallbackInterval)
	}

	s := &Simulator{
		opts:     DefaultOptions(),
		settings: st,
	}
	for _, apply := range st.options {
		apply(&s.opts)
	}
	if st.workers > 1 {
		s.pool = newWorkerPool(st.workers)
	}
	s.tickFn = s.tick
	return s
}

// Draw attaches the simulator to surface, builds the grid from the current
// options, sizes the surface and starts the loop. Calling Draw again rebuilds
// the grid from scratch.
func (s *Simulator) Draw(surface Surface) error {
	if isNil(surface) {
		return ErrNoSurface
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	grid := NewGrid(s.opts)
	if err := surface.Resize(grid.Width, grid.Height); err != nil {
		s.mu.Unlock()
		return err
	}
	s.surface = surface
	s.grid = grid
	s.frame = NewFrame(grid)
	s.mu.Unlock()

	return s.Start()
}

// isNil also catches typed nil pointers wrapped in the interface.
func isNil(surface Surface) bool {
	if surface == nil {
		return true
	}
	v := reflect.ValueOf(surface)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Start sets the simulator running and runs one tick immediately.
func (s *Simulator) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.running = true
	s.mu.Unlock()

	s.tick()
	return nil
}

// Stop prevents the next tick from being scheduled. A tick in progress completes.
// Cancel runs under the lock so a concurrent Start keeps its scheduled tick.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.settings.scheduler.Cancel()
}

// Running reports whether ticks are being scheduled.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Options returns a copy of the current options.
func (s *Simulator) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetOptions overwrites the given fields and leaves the rest unchanged.
func (s *Simulator) SetOptions(opts ...Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, apply := range opts {
		apply(&s.opts)
	}
}

// MouseState reports whether pointer input is accepted.
func (s *Simulator) MouseState() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Mouse
}

// SetMouseState enables or disables pointer input and returns the new state.
func (s *Simulator) SetMouseState(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Mouse = enabled
	return s.opts.Mouse
}

// SetCustomAnimation replaces the attractor path; nil restores the default.
func (s *Simulator) SetCustomAnimation(fn AnimationFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Animation = fn
}

// ResetClock makes the default path restart from phase zero.
func (s *Simulator) ResetClock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.epoch = s.settings.clock()
}

// Pointer records a pointer position relative to the surface origin. The
// first accepted event switches the simulator to manual mode for good.
// Ignored while mouse input is disabled.
func (s *Simulator) Pointer(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opts.Mouse {
		return
	}
	s.manual = true
	s.attractor = Point{X: x, Y: y}
}

// Manual reports whether pointer input has taken over the attractor.
func (s *Simulator) Manual() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manual
}

// Attractor returns the attractor used by the last tick, or the last pointer
// position in manual mode.
func (s *Simulator) Attractor() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attractor
}

// Ticks returns the number of completed ticks.
func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// SurfaceSize returns the size of the attached surface, or zero before Draw.
func (s *Simulator) SurfaceSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil {
		return 0, 0
	}
	return s.grid.Width, s.grid.Height
}

// View calls fn with the grid and last frame while the simulator is locked.
// fn must not retain either. Does nothing before Draw.
func (s *Simulator) View(fn func(g *Grid, frame *image.RGBA)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil {
		return
	}
	fn(s.grid, s.frame)
}

// Close stops the loop and releases the worker pool.
func (s *Simulator) Close() {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.pool != nil {
		s.pool.stop()
	}
}

// tick runs one attractor/physics/raster/present cycle and reschedules itself
// while running.
func (s *Simulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grid == nil || s.closed {
		return
	}

	obs := s.settings.observer
	if obs != nil {
		obs.StartTick()
		obs.StartPhase(PhaseAttractor)
	}

	if !s.manual {
		s.attractor = s.nextAttractor()
	}

	if obs != nil {
		obs.StartPhase(PhasePhysics)
	}
	if s.pool != nil && s.grid.Len() >= s.settings.parallelThreshold {
		s.pool.step(s.grid, s.attractor, s.opts.Radius)
	} else {
		s.grid.Step(s.attractor, s.opts.Radius)
	}

	if obs != nil {
		obs.StartPhase(PhaseRaster)
	}
	Rasterize(s.frame, s.grid, s.opts.Color)

	if obs != nil {
		obs.StartPhase(PhasePresent)
	}
	if err := s.surface.Present(s.frame); err != nil && s.settings.onPresentError != nil {
		s.settings.onPresentError(err)
	}

	s.ticks++
	if obs != nil {
		obs.EndTick()
	}

	if len(s.settings.hooks) > 0 {
		info := TickInfo{
			Tick:      s.ticks,
			Attractor: s.attractor,
			Manual:    s.manual,
			Options:   s.opts,
			Grid:      s.grid,
			Frame:     s.frame,
		}
		for _, h := range s.settings.hooks {
			h(info)
		}
	}

	if s.running {
		s.settings.scheduler.Schedule(s.tickFn)
	}
}

// nextAttractor resolves the procedural attractor for this tick.
func (s *Simulator) nextAttractor() Point {
	if s.opts.Animation != nil {
		return s.opts.Animation(s.attractor, s.grid.Width, s.grid.Height, s.opts)
	}
	return Lissajous(phase(s.settings.clock(), s.settings.epoch), s.grid.Width, s.grid.Height)
}
