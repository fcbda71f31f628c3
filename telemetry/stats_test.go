package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/particlefield/field"
)

func smallGrid() *field.Grid {
	return field.NewGrid(field.Options{Rows: 2, Cols: 5, Spacing: 10, Margin: 5})
}

func TestComputeFieldSnapshotAtRest(t *testing.T) {
	g := smallGrid()

	snap, _ := ComputeFieldSnapshot(g, 0.5, nil)

	if snap.MeanDisplacement != 0 || snap.MaxDisplacement != 0 {
		t.Errorf("expected zero displacement at rest, got mean=%v max=%v", snap.MeanDisplacement, snap.MaxDisplacement)
	}
	if snap.Excited != 0 {
		t.Errorf("expected no excited particles, got %d", snap.Excited)
	}
	if snap.KineticEnergy != 0 {
		t.Errorf("expected zero energy, got %v", snap.KineticEnergy)
	}
}

func TestComputeFieldSnapshot(t *testing.T) {
	g := smallGrid()
	// Displace particles 0..9 by 0..9 pixels along X.
	for i := 0; i < g.Len(); i++ {
		g.X[i] += float64(i)
	}
	g.VX[0], g.VY[0] = 3, 4

	snap, buf := ComputeFieldSnapshot(g, 4.5, nil)

	if math.Abs(snap.MeanDisplacement-4.5) > 1e-9 {
		t.Errorf("mean = %v, want 4.5", snap.MeanDisplacement)
	}
	if snap.MaxDisplacement != 9 {
		t.Errorf("max = %v, want 9", snap.MaxDisplacement)
	}
	if snap.P50Displacement != 4 {
		t.Errorf("p50 = %v, want 4", snap.P50Displacement)
	}
	if snap.P90Displacement != 8 {
		t.Errorf("p90 = %v, want 8", snap.P90Displacement)
	}
	if want := math.Sqrt(8.25); math.Abs(snap.StdDisplacement-want) > 1e-9 {
		t.Errorf("std = %v, want %v", snap.StdDisplacement, want)
	}
	if snap.Excited != 5 {
		t.Errorf("excited = %d, want 5", snap.Excited)
	}
	// 0.5*25 over 10 particles
	if math.Abs(snap.KineticEnergy-1.25) > 1e-9 {
		t.Errorf("energy = %v, want 1.25", snap.KineticEnergy)
	}
	if len(buf) < g.Len() {
		t.Errorf("expected buffer returned for reuse, len %d", len(buf))
	}

	// Sorting the buffer must not touch grid state.
	if g.X[9] != float64(g.RestX[9])+9 {
		t.Error("snapshot modified the grid")
	}
}

func TestCollectorFlushesWindows(t *testing.T) {
	g := smallGrid()
	c := NewCollector(3, 0.5)

	var windows []WindowStats
	for tick := uint64(1); tick <= 7; tick++ {
		g.VX[0] = float64(tick)
		info := field.TickInfo{
			Tick:      tick,
			Attractor: field.Point{X: float64(tick) * 3, Y: float64(tick) * 4},
			Grid:      g,
		}
		if w, ok := c.Record(info); ok {
			windows = append(windows, w)
		}
	}

	if len(windows) != 2 {
		t.Fatalf("expected 2 windows from 7 ticks, got %d", len(windows))
	}

	w := windows[0]
	if w.WindowStartTick != 0 || w.WindowEndTick != 3 || w.Ticks != 3 {
		t.Errorf("unexpected first window bounds: %+v", w)
	}
	// Attractor moves 5px per tick; the first tick has no predecessor.
	if math.Abs(w.AttractorTravel-10) > 1e-9 {
		t.Errorf("travel = %v, want 10", w.AttractorTravel)
	}
	// Energies 0.05, 0.2, 0.45 for vx = 1, 2, 3 over 10 particles.
	if math.Abs(w.MeanEnergy-0.7/3) > 1e-9 {
		t.Errorf("mean energy = %v, want %v", w.MeanEnergy, 0.7/3)
	}
	if math.Abs(w.PeakEnergy-0.45) > 1e-9 {
		t.Errorf("peak energy = %v, want 0.45", w.PeakEnergy)
	}

	w = windows[1]
	if w.WindowStartTick != 3 || w.WindowEndTick != 6 {
		t.Errorf("unexpected second window bounds: %+v", w)
	}
	if math.Abs(w.AttractorTravel-15) > 1e-9 {
		t.Errorf("second window travel = %v, want 15", w.AttractorTravel)
	}
}

func TestCollectorClampsWindow(t *testing.T) {
	c := NewCollector(0, 0.5)
	if c.WindowTicks() != 1 {
		t.Fatalf("expected window clamped to 1 tick, got %d", c.WindowTicks())
	}
	if _, ok := c.Record(field.TickInfo{Tick: 1, Grid: smallGrid()}); !ok {
		t.Error("expected every tick to close a window")
	}
}

func TestCollectorReset(t *testing.T) {
	g := smallGrid()
	c := NewCollector(2, 0.5)

	c.Record(field.TickInfo{Tick: 1, Grid: g, Attractor: field.Point{X: 100}})
	c.Reset(1)
	w, ok := c.Record(field.TickInfo{Tick: 2, Grid: g})
	if ok {
		t.Fatal("expected reset to discard the partial window")
	}
	w, ok = c.Record(field.TickInfo{Tick: 3, Grid: g})
	if !ok {
		t.Fatal("expected window after two ticks")
	}
	if w.AttractorTravel != 0 {
		t.Errorf("expected travel to restart after reset, got %v", w.AttractorTravel)
	}
}

func TestWindowStatsLogValue(t *testing.T) {
	s := WindowStats{WindowEndTick: 60, Excited: 3, Manual: true}
	v := s.LogValue()
	if len(v.Group()) == 0 {
		t.Fatal("expected grouped attributes")
	}
	if s.Settled() {
		t.Error("expected excited window not settled")
	}
}
