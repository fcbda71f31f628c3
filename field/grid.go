package field

import "math"

// Physics constants.
const (
	// Damping scales velocity once per tick.
	Damping = 0.95
	// Easing is the fraction of the remaining displacement from rest recovered per tick.
	Easing = 0.25
	// minDistSq bounds the force denominator; the impulse saturates inside one pixel.
	minDistSq = 1.0
)

// Grid is the particle state in structure-of-arrays layout. All slices have
// length Len() and are indexed by particle id in row-major order.
type Grid struct {
	Rows, Cols    int
	Width, Height int

	RestX, RestY []int32
	X, Y         []float64
	VX, VY       []float64
}

// NewGrid builds a grid at rest for the given options.
func NewGrid(o Options) *Grid {
	n := o.NumParticles()
	if n < 0 {
		n = 0
	}
	w, h := o.SurfaceSize()
	g := &Grid{
		Rows:   o.Rows,
		Cols:   o.Cols,
		Width:  w,
		Height: h,
		RestX:  make([]int32, n),
		RestY:  make([]int32, n),
		X:      make([]float64, n),
		Y:      make([]float64, n),
		VX:     make([]float64, n),
		VY:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		g.RestX[i] = int32(o.Margin + o.Spacing*(i%o.Cols))
		g.RestY[i] = int32(o.Margin + o.Spacing*(i/o.Cols))
		g.X[i] = float64(g.RestX[i])
		g.Y[i] = float64(g.RestY[i])
	}
	return g
}

// Len returns the particle count.
func (g *Grid) Len() int {
	return len(g.X)
}

// Displacement returns the distance of particle i from its rest position.
func (g *Grid) Displacement(i int) float64 {
	dx := g.X[i] - float64(g.RestX[i])
	dy := g.Y[i] - float64(g.RestY[i])
	return math.Hypot(dx, dy)
}

// Step advances every particle by one tick against attractor a.
func (g *Grid) Step(a Point, radius float64) {
	g.stepRange(0, g.Len(), a, radius)
}

// stepRange advances particles [start, end). Particles are independent, so
// disjoint ranges may run concurrently.
func (g *Grid) stepRange(start, end int, a Point, radius float64) {
	x, y := g.X[start:end], g.Y[start:end]
	vx, vy := g.VX[start:end], g.VY[start:end]
	rx, ry := g.RestX[start:end], g.RestY[start:end]

	for i := range x {
		dx := a.X - x[i]
		dy := a.Y - y[i]
		distSq := dx*dx + dy*dy

		if distSq < radius {
			theta := math.Atan2(dy, dx)
			f := -radius / math.Max(distSq, minDistSq)
			vx[i] += f * math.Cos(theta)
			vy[i] += f * math.Sin(theta)
		}

		vx[i] *= Damping
		vy[i] *= Damping
		x[i] += vx[i] + (float64(rx[i])-x[i])*Easing
		y[i] += vy[i] + (float64(ry[i])-y[i])*Easing
	}
}
