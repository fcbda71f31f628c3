package paths

import (
	"time"

	"github.com/aquilax/go-perlin"

	"github.com/pthm-cable/particlefield/field"
)

// wanderRow offsets the Y sample so the two axes move independently.
const wanderRow = 17.31

// Wander drifts the attractor along smooth Perlin noise. speed is in noise
// units per second; alpha, beta and octaves are passed to the generator.
func Wander(speed, alpha, beta float64, octaves int32, seed int64, clock func() time.Time) field.AnimationFunc {
	noise := perlin.NewPerlin(alpha, beta, octaves, seed)
	sw := newStopwatch(clock)
	return func(_ field.Point, w, h int, _ field.Options) field.Point {
		t := sw.seconds() * speed
		fw, fh := float64(w), float64(h)
		return field.Point{
			X: clamp(fw*0.5+noise.Noise2D(t, 0)*fw, 0, fw),
			Y: clamp(fh*0.5+noise.Noise2D(t, wanderRow)*fh, 0, fh),
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
