package telemetry

import (
	"math"
	"time"

	"github.com/pthm-cable/particlefield/field"
)

// Collector accumulates per-tick samples within windows and produces WindowStats.
// Record is meant to run from a field.TickHook.
type Collector struct {
	windowTicks      int
	excitedThreshold float64
	now              func() time.Time

	// Current window tracking
	windowStartTick uint64
	windowStartTime time.Time
	ticks           int
	energySum       float64
	peakEnergy      float64
	travel          float64
	lastAttractor   field.Point
	haveAttractor   bool

	buf []float64
}

// NewCollector creates a new stats collector.
// windowTicks: ticks per window; excitedThreshold: displacement in pixels
// above which a particle counts as excited.
func NewCollector(windowTicks int, excitedThreshold float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks:      windowTicks,
		excitedThreshold: excitedThreshold,
		now:              time.Now,
		windowStartTime:  time.Now(),
	}
}

// Record samples one tick. It returns the finished window when the tick
// completes one.
func (c *Collector) Record(info field.TickInfo) (WindowStats, bool) {
	e := KineticEnergy(info.Grid)
	c.energySum += e
	if e > c.peakEnergy {
		c.peakEnergy = e
	}
	if c.haveAttractor {
		c.travel += math.Hypot(info.Attractor.X-c.lastAttractor.X, info.Attractor.Y-c.lastAttractor.Y)
	}
	c.lastAttractor = info.Attractor
	c.haveAttractor = true
	c.ticks++

	if c.ticks < c.windowTicks {
		return WindowStats{}, false
	}
	return c.Flush(info), true
}

// Flush produces a WindowStats from the window so far and resets counters
// for the next window.
func (c *Collector) Flush(info field.TickInfo) WindowStats {
	var snap FieldSnapshot
	snap, c.buf = ComputeFieldSnapshot(info.Grid, c.excitedThreshold, c.buf)

	now := c.now()
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   info.Tick,
		Ticks:           c.ticks,
		ElapsedSec:      now.Sub(c.windowStartTime).Seconds(),

		AttractorX:      info.Attractor.X,
		AttractorY:      info.Attractor.Y,
		Manual:          info.Manual,
		AttractorTravel: c.travel,

		MeanDisplacement: snap.MeanDisplacement,
		StdDisplacement:  snap.StdDisplacement,
		P50Displacement:  snap.P50Displacement,
		P90Displacement:  snap.P90Displacement,
		MaxDisplacement:  snap.MaxDisplacement,
		Excited:          snap.Excited,

		PeakEnergy: c.peakEnergy,
	}
	if n := info.Grid.Len(); n > 0 {
		stats.ExcitedFrac = float64(snap.Excited) / float64(n)
	}
	if c.ticks > 0 {
		stats.MeanEnergy = c.energySum / float64(c.ticks)
	}

	// Reset for next window
	c.windowStartTick = info.Tick
	c.windowStartTime = now
	c.ticks = 0
	c.energySum = 0
	c.peakEnergy = 0
	c.travel = 0

	return stats
}

// Reset discards the current window, e.g. after the grid is rebuilt.
func (c *Collector) Reset(tick uint64) {
	c.windowStartTick = tick
	c.windowStartTime = c.now()
	c.ticks = 0
	c.energySum = 0
	c.peakEnergy = 0
	c.travel = 0
	c.haveAttractor = false
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int {
	return c.windowTicks
}
