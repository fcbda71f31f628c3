package field

import (
	"math"
	"testing"
)

func cloneGrid(g *Grid) *Grid {
	c := *g
	c.RestX = append([]int32(nil), g.RestX...)
	c.RestY = append([]int32(nil), g.RestY...)
	c.X = append([]float64(nil), g.X...)
	c.Y = append([]float64(nil), g.Y...)
	c.VX = append([]float64(nil), g.VX...)
	c.VY = append([]float64(nil), g.VY...)
	return &c
}

func TestNewGridRestPositions(t *testing.T) {
	g := NewGrid(Options{Rows: 2, Cols: 2, Spacing: 10, Margin: 5})

	want := []struct{ x, y int32 }{{5, 5}, {15, 5}, {5, 15}, {15, 15}}
	if g.Len() != len(want) {
		t.Fatalf("expected %d particles, got %d", len(want), g.Len())
	}
	for i, w := range want {
		if g.RestX[i] != w.x || g.RestY[i] != w.y {
			t.Errorf("particle %d: expected rest (%d, %d), got (%d, %d)", i, w.x, w.y, g.RestX[i], g.RestY[i])
		}
		if g.X[i] != float64(w.x) || g.Y[i] != float64(w.y) {
			t.Errorf("particle %d: expected position at rest, got (%f, %f)", i, g.X[i], g.Y[i])
		}
		if g.VX[i] != 0 || g.VY[i] != 0 {
			t.Errorf("particle %d: expected zero velocity, got (%f, %f)", i, g.VX[i], g.VY[i])
		}
	}
	if g.Width != 30 || g.Height != 30 {
		t.Errorf("expected 30x30 surface, got %dx%d", g.Width, g.Height)
	}
}

func TestNewGridDefaults(t *testing.T) {
	g := NewGrid(DefaultOptions())

	if g.Len() != 24000 {
		t.Errorf("expected 24000 particles, got %d", g.Len())
	}
	if g.Width != 1040 || g.Height != 480 {
		t.Errorf("expected 1040x480 surface, got %dx%d", g.Width, g.Height)
	}
	// Last particle sits at the bottom-right rest position.
	last := g.Len() - 1
	if g.RestX[last] != 40+4*239 || g.RestY[last] != 40+4*99 {
		t.Errorf("unexpected last rest position (%d, %d)", g.RestX[last], g.RestY[last])
	}
}

func TestNewGridWideSurface(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 20000, Spacing: 4})

	if g.Width != 80000 {
		t.Fatalf("expected 80000px wide surface, got %d", g.Width)
	}
	last := g.Len() - 1
	if g.RestX[last] != 79996 {
		t.Errorf("expected last rest x 79996, got %d", g.RestX[last])
	}
	if g.X[last] != 79996 {
		t.Errorf("expected last particle at rest, got %f", g.X[last])
	}
}

func TestStepImpulseInsideRadius(t *testing.T) {
	g := NewGrid(Options{Rows: 2, Cols: 2, Spacing: 10, Margin: 5})

	g.Step(Point{X: 5, Y: 5}, 100)

	if g.VX[0] == 0 && g.VY[0] == 0 {
		t.Error("expected particle 0 to receive an impulse")
	}
	if math.IsNaN(g.VX[0]) || math.IsInf(g.VX[0], 0) || math.IsNaN(g.VY[0]) || math.IsInf(g.VY[0], 0) {
		t.Errorf("expected finite velocity for coincident attractor, got (%f, %f)", g.VX[0], g.VY[0])
	}
	// distSq == radius for particles 1 and 2, 2*radius for particle 3.
	for i := 1; i < 4; i++ {
		if g.VX[i] != 0 || g.VY[i] != 0 {
			t.Errorf("particle %d: expected no impulse, got (%f, %f)", i, g.VX[i], g.VY[i])
		}
		if g.X[i] != float64(g.RestX[i]) || g.Y[i] != float64(g.RestY[i]) {
			t.Errorf("particle %d: expected to stay at rest", i)
		}
	}
}

func TestStepRepelsFromAttractor(t *testing.T) {
	tests := []struct {
		name   string
		offset Point
	}{
		{"right", Point{X: 3}},
		{"left", Point{X: -3}},
		{"below", Point{Y: 4}},
		{"diagonal", Point{X: -2, Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(Options{Rows: 1, Cols: 1, Spacing: 10, Margin: 20})
			a := Point{X: g.X[0] + tt.offset.X, Y: g.Y[0] + tt.offset.Y}

			g.Step(a, 100)

			// Velocity must point away from the attractor.
			dot := g.VX[0]*tt.offset.X + g.VY[0]*tt.offset.Y
			if dot >= 0 {
				t.Errorf("expected velocity (%f, %f) to point away from offset %v", g.VX[0], g.VY[0], tt.offset)
			}
		})
	}
}

func TestStepImpulseMagnitude(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 1, Spacing: 10, Margin: 20})
	g.Step(Point{X: 24, Y: 20}, 100)

	// f = -100/16, damped once.
	want := -100.0 / 16 * Damping
	if math.Abs(g.VX[0]-want) > 1e-12 {
		t.Errorf("expected vx %f, got %f", want, g.VX[0])
	}
	if math.Abs(g.VY[0]) > 1e-12 {
		t.Errorf("expected vy 0, got %f", g.VY[0])
	}
	wantX := 20 + want
	if math.Abs(g.X[0]-wantX) > 1e-12 {
		t.Errorf("expected x %f, got %f", wantX, g.X[0])
	}
}

func TestVelocityDecaysGeometrically(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 3, Spacing: 10, Margin: 5})
	for i := range g.VX {
		g.VX[i] = float64(i+1) * 4
		g.VY[i] = -float64(i+1) * 2
	}
	far := Point{X: -1e6, Y: -1e6}

	for tick := 0; tick < 20; tick++ {
		prevX := append([]float64(nil), g.VX...)
		prevY := append([]float64(nil), g.VY...)
		g.Step(far, 100)
		for i := range g.VX {
			if g.VX[i] != prevX[i]*Damping || g.VY[i] != prevY[i]*Damping {
				t.Fatalf("tick %d particle %d: expected velocity scaled by %v", tick, i, Damping)
			}
		}
	}
}

func TestDisplacementConvergesToRest(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 1, Spacing: 10, Margin: 20})
	g.X[0] += 8
	g.Y[0] -= 6
	far := Point{X: -1e6, Y: -1e6}

	prev := g.Displacement(0)
	for tick := 0; tick < 30; tick++ {
		g.Step(far, 2500)
		d := g.Displacement(0)
		if math.Abs(d-prev*(1-Easing)) > 1e-9 {
			t.Fatalf("tick %d: expected displacement %f, got %f", tick, prev*(1-Easing), d)
		}
		if d > prev {
			t.Fatalf("tick %d: displacement grew from %f to %f", tick, prev, d)
		}
		prev = d
	}
	if prev > 0.01 {
		t.Errorf("expected particle near rest after 30 ticks, displacement %f", prev)
	}
}

func TestStepOutsideRadiusKeepsRest(t *testing.T) {
	g := NewGrid(Options{Rows: 4, Cols: 4, Spacing: 10, Margin: 5})
	rest := cloneGrid(g)

	for i := 0; i < 10; i++ {
		g.Step(Point{X: 500, Y: 500}, 2500)
	}
	for i := range g.X {
		if g.X[i] != rest.X[i] || g.Y[i] != rest.Y[i] {
			t.Fatalf("particle %d moved without an impulse", i)
		}
	}
}
