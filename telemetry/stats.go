package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/particlefield/field"
)

// FieldSnapshot holds displacement and motion statistics for one tick.
type FieldSnapshot struct {
	MeanDisplacement float64
	StdDisplacement  float64
	P50Displacement  float64
	P90Displacement  float64
	MaxDisplacement  float64
	KineticEnergy    float64 // Mean 0.5*|v|^2 per particle
	Excited          int     // Particles displaced beyond the threshold
}

// ComputeFieldSnapshot measures g. buf is reused for displacements when it
// is large enough and may be nil.
func ComputeFieldSnapshot(g *field.Grid, excitedThreshold float64, buf []float64) (FieldSnapshot, []float64) {
	n := g.Len()
	if n == 0 {
		return FieldSnapshot{}, buf
	}
	if cap(buf) < n {
		buf = make([]float64, n)
	}
	disp := buf[:n]

	excited := 0
	for i := range disp {
		d := g.Displacement(i)
		disp[i] = d
		if d > excitedThreshold {
			excited++
		}
	}

	mean, std := stat.PopMeanStdDev(disp, nil)
	snap := FieldSnapshot{
		MeanDisplacement: mean,
		StdDisplacement:  std,
		MaxDisplacement:  floats.Max(disp),
		KineticEnergy:    KineticEnergy(g),
		Excited:          excited,
	}

	sort.Float64s(disp)
	snap.P50Displacement = stat.Quantile(0.5, stat.Empirical, disp, nil)
	snap.P90Displacement = stat.Quantile(0.9, stat.Empirical, disp, nil)

	return snap, buf
}

// KineticEnergy returns the mean kinetic energy per particle, taking unit mass.
func KineticEnergy(g *field.Grid) float64 {
	n := g.Len()
	if n == 0 {
		return 0
	}
	return 0.5 * (floats.Dot(g.VX, g.VX) + floats.Dot(g.VY, g.VY)) / float64(n)
}

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	Ticks           int     `csv:"ticks"`
	ElapsedSec      float64 `csv:"elapsed_sec"`

	// Attractor at window end
	AttractorX float64 `csv:"attractor_x"`
	AttractorY float64 `csv:"attractor_y"`
	Manual     bool    `csv:"manual"`

	// Attractor path length over the window, in pixels
	AttractorTravel float64 `csv:"attractor_travel"`

	// Displacement distribution at window end
	MeanDisplacement float64 `csv:"mean_disp"`
	StdDisplacement  float64 `csv:"std_disp"`
	P50Displacement  float64 `csv:"p50_disp"`
	P90Displacement  float64 `csv:"p90_disp"`
	MaxDisplacement  float64 `csv:"max_disp"`
	Excited          int     `csv:"excited"`
	ExcitedFrac      float64 `csv:"excited_frac"`

	// Kinetic energy sampled every tick
	MeanEnergy float64 `csv:"mean_energy"`
	PeakEnergy float64 `csv:"peak_energy"`
}

// Settled reports whether no particle was excited at window end.
func (s WindowStats) Settled() bool {
	return s.Excited == 0
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Int("ticks", s.Ticks),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Float64("attractor_x", s.AttractorX),
		slog.Float64("attractor_y", s.AttractorY),
		slog.Bool("manual", s.Manual),
		slog.Float64("attractor_travel", s.AttractorTravel),
		slog.Float64("mean_disp", s.MeanDisplacement),
		slog.Float64("std_disp", s.StdDisplacement),
		slog.Float64("p50_disp", s.P50Displacement),
		slog.Float64("p90_disp", s.P90Displacement),
		slog.Float64("max_disp", s.MaxDisplacement),
		slog.Int("excited", s.Excited),
		slog.Float64("excited_frac", s.ExcitedFrac),
		slog.Float64("mean_energy", s.MeanEnergy),
		slog.Float64("peak_energy", s.PeakEnergy),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"elapsed_sec", round3(s.ElapsedSec),
		"manual", s.Manual,
		"attractor_travel", round3(s.AttractorTravel),
		"mean_disp", round3(s.MeanDisplacement),
		"p90_disp", round3(s.P90Displacement),
		"max_disp", round3(s.MaxDisplacement),
		"excited", s.Excited,
		"excited_frac", round3(s.ExcitedFrac),
		"mean_energy", round3(s.MeanEnergy),
		"peak_energy", round3(s.PeakEnergy),
	)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
