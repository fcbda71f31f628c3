// Package game hosts a particle field simulator for the interactive and
// headless front ends.
package game

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/field"
	"github.com/pthm-cable/particlefield/paths"
	"github.com/pthm-cable/particlefield/telemetry"
)

// bookmarkHistory is the number of windows the bookmark detector compares against.
const bookmarkHistory = 10

// Game wires a Simulator to its scheduler, telemetry and output.
type Game struct {
	cfg  *config.Config
	sim  *field.Simulator
	opts Options

	// anim and clock rebuild the attractor path on reset.
	anim  config.AnimationConfig
	clock func() time.Time

	// frames is nil in realtime mode.
	frames  *field.FrameScheduler
	surface field.Surface

	// Telemetry, touched only from the tick hook
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	frameEvery       int
	lastGrid         *field.Grid

	statsCallback func(telemetry.WindowStats)

	mu        sync.Mutex
	lastStats telemetry.WindowStats
	haveStats bool
}

// NewGame creates a game from the loaded configuration with default options.
func NewGame(cfg *config.Config) (*Game, error) {
	return NewGameWithOptions(cfg, DefaultOptions())
}

// NewGameWithOptions creates a game from the loaded configuration.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	anim := cfg.Animation
	if opts.Path != "" {
		anim.Path = opts.Path
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	path, err := paths.ByName(anim, clock)
	if err != nil {
		return nil, fmt.Errorf("animation: %w", err)
	}

	statsTicks := cfg.Derived.StatsTicks
	if opts.StatsWindowSec > 0 {
		statsTicks = max(1, int(opts.StatsWindowSec*float64(max(cfg.Screen.TargetFPS, 1))))
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g := &Game{
		cfg:              cfg,
		opts:             opts,
		anim:             anim,
		clock:            clock,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:        telemetry.NewCollector(statsTicks, cfg.Telemetry.ExcitedThreshold),
		bookmarkDetector: telemetry.NewBookmarkDetector(bookmarkHistory),
		outputManager:    om,
		frameEvery:       cfg.Output.FrameEvery,
	}

	var sched field.Scheduler
	if opts.Realtime {
		interval := field.FallbackInterval
		if cfg.Screen.TargetFPS > 0 {
			interval = time.Second / time.Duration(cfg.Screen.TargetFPS)
		}
		sched = field.NewTimerScheduler(interval)
	} else {
		g.frames = field.NewFrameScheduler()
		sched = g.frames
	}

	fieldOpts := cfg.FieldOptions()
	if path != nil {
		fieldOpts = append(fieldOpts, field.WithAnimation(path))
	}

	settings := []field.Setting{
		field.Configure(fieldOpts...),
		field.WithScheduler(sched),
		field.WithClock(clock),
		field.WithPhaseObserver(g.perfCollector),
		field.WithTickHook(g.onTick),
		field.WithPresentErrorHandler(func(err error) {
			slog.Error("present failed", "error", err)
		}),
	}
	if cfg.Parallel.Workers > 0 {
		settings = append(settings, field.WithWorkers(cfg.Parallel.Workers))
	}
	if cfg.Parallel.Threshold > 0 {
		settings = append(settings, field.WithParallelThreshold(cfg.Parallel.Threshold))
	}
	g.sim = field.New(settings...)

	return g, nil
}

// Attach draws the field onto surface and starts it.
func (g *Game) Attach(surface field.Surface) error {
	g.surface = surface
	if err := g.sim.Draw(surface); err != nil {
		return fmt.Errorf("attaching surface: %w", err)
	}

	w, h := g.sim.SurfaceSize()
	o := g.sim.Options()
	slog.Info("field attached",
		"rows", o.Rows,
		"cols", o.Cols,
		"particles", o.NumParticles(),
		"width", w,
		"height", h,
		"realtime", g.opts.Realtime,
	)
	return nil
}

// Step runs the tick requested for this display refresh, if any. It reports
// whether a tick ran. In realtime mode ticks run on their own and Step only
// records frame timing.
func (g *Game) Step() bool {
	g.perfCollector.RecordFrame()
	if g.frames == nil {
		return false
	}
	return g.frames.Pump()
}

// Sim returns the hosted simulator.
func (g *Game) Sim() *field.Simulator {
	return g.sim
}

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() uint64 {
	return g.sim.Ticks()
}

// Realtime reports whether ticks are timer driven.
func (g *Game) Realtime() bool {
	return g.frames == nil
}

// SetStatsCallback registers fn to receive every finished stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// LatestStats returns the most recent stats window.
func (g *Game) LatestStats() (telemetry.WindowStats, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastStats, g.haveStats
}

// PerfStats returns timing statistics over the current perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Unload stops the simulator and closes output files.
func (g *Game) Unload() {
	g.sim.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
