package paths

import (
	"github.com/charmbracelet/harmonica"

	"github.com/pthm-cable/particlefield/field"
)

// springChase holds the damped spring state on both axes.
type springChase struct {
	spring harmonica.Spring
	target field.AnimationFunc
	primed bool
	x, vx  float64
	y, vy  float64
}

// Spring chases another path with a damped spring, advancing one frame of
// 1/fps seconds per tick. The chase starts from the current attractor.
func Spring(target field.AnimationFunc, fps int, frequency, damping float64) field.AnimationFunc {
	if fps <= 0 {
		fps = 60
	}
	s := &springChase{
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
		target: target,
	}
	return s.next
}

func (s *springChase) next(current field.Point, w, h int, opts field.Options) field.Point {
	goal := s.target(current, w, h, opts)
	if !s.primed {
		s.x, s.y = current.X, current.Y
		s.primed = true
	}
	s.x, s.vx = s.spring.Update(s.x, s.vx, goal.X)
	s.y, s.vy = s.spring.Update(s.y, s.vy, goal.Y)
	return field.Point{X: s.x, Y: s.y}
}
