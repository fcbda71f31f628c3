package field

import (
	"math"
	"time"
)

// Point is a position on the drawing surface.
type Point struct {
	X, Y float64
}

// AnimationFunc produces the attractor for the next tick from the current
// attractor, the surface size and the simulator options. It runs while the
// simulator is locked and must not call back into it.
type AnimationFunc func(current Point, width, height int, opts Options) Point

// TimeScale converts seconds into the phase of the default path.
const TimeScale = 1.5

// Lissajous returns the default figure-of-eight path at phase t.
func Lissajous(t float64, width, height int) Point {
	w, h := float64(width), float64(height)
	return Point{
		X: w*0.5 + 0.4*w*math.Cos(t),
		Y: h*0.5 + 0.6*h*math.Cos(t)*math.Sin(t),
	}
}

// phase returns the default path phase for now measured from epoch.
func phase(now, epoch time.Time) float64 {
	return now.Sub(epoch).Seconds() * TimeScale
}
