// Package paths provides procedural attractor paths for the particle field.
//
// Every constructor returns a field.AnimationFunc. Paths that depend on time
// read the supplied clock and measure from the moment they were built.
package paths

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/field"
)

// Path names accepted by ByName.
const (
	NameLissajous = "lissajous"
	NameOrbit     = "orbit"
	NameWander    = "wander"
	NameSpring    = "spring"
	NameFixed     = "fixed"
)

// Names lists every selectable path.
var Names = []string{NameLissajous, NameOrbit, NameWander, NameSpring, NameFixed}

// stopwatch reports seconds elapsed since it was created.
type stopwatch struct {
	clock func() time.Time
	start time.Time
}

func newStopwatch(clock func() time.Time) stopwatch {
	if clock == nil {
		clock = time.Now
	}
	return stopwatch{clock: clock, start: clock()}
}

func (s stopwatch) seconds() float64 {
	return s.clock().Sub(s.start).Seconds()
}

// Lissajous follows the default figure-of-eight, timed from construction
// rather than from the simulator epoch.
func Lissajous(clock func() time.Time) field.AnimationFunc {
	sw := newStopwatch(clock)
	return func(_ field.Point, w, h int, _ field.Options) field.Point {
		return field.Lissajous(sw.seconds()*field.TimeScale, w, h)
	}
}

// Orbit circles the surface centre. radius is a fraction of the smaller
// surface dimension and speed is in radians per second.
func Orbit(radius, speed float64, clock func() time.Time) field.AnimationFunc {
	sw := newStopwatch(clock)
	return func(_ field.Point, w, h int, _ field.Options) field.Point {
		r := radius * float64(min(w, h))
		a := sw.seconds() * speed
		return field.Point{
			X: float64(w)*0.5 + r*math.Cos(a),
			Y: float64(h)*0.5 + r*math.Sin(a),
		}
	}
}

// Fixed pins the attractor at (fx*width, fy*height).
func Fixed(fx, fy float64) field.AnimationFunc {
	return func(_ field.Point, w, h int, _ field.Options) field.Point {
		return field.Point{X: fx * float64(w), Y: fy * float64(h)}
	}
}

// ByName builds the path selected in cfg. The lissajous path returns nil so
// the simulator keeps its built-in default and epoch.
func ByName(cfg config.AnimationConfig, clock func() time.Time) (field.AnimationFunc, error) {
	if cfg.Path == "" || cfg.Path == NameLissajous {
		return nil, nil
	}
	return build(cfg.Path, cfg, clock)
}

func build(name string, cfg config.AnimationConfig, clock func() time.Time) (field.AnimationFunc, error) {
	switch name {
	case NameLissajous:
		return Lissajous(clock), nil
	case NameOrbit:
		return Orbit(cfg.Orbit.Radius, cfg.Orbit.Speed, clock), nil
	case NameWander:
		w := cfg.Wander
		seed := w.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return Wander(w.Speed, w.Alpha, w.Beta, w.Octaves, seed, clock), nil
	case NameFixed:
		return Fixed(cfg.Fixed.X, cfg.Fixed.Y), nil
	case NameSpring:
		s := cfg.Spring
		if s.Target == NameSpring {
			return nil, fmt.Errorf("spring path cannot chase itself")
		}
		target := s.Target
		if target == "" {
			target = NameLissajous
		}
		inner, err := build(target, cfg, clock)
		if err != nil {
			return nil, fmt.Errorf("spring target: %w", err)
		}
		return Spring(inner, s.FPS, s.Frequency, s.Damping), nil
	default:
		return nil, fmt.Errorf("unknown path %q", name)
	}
}
