package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/particlefield/paths"
)

// Action is a front-end independent user command.
type Action int

const (
	ActionNone Action = iota
	ActionToggleRun
	ActionToggleMouse
	ActionRebuild
	ActionResetClock
)

// KeyHelp describes the default key bindings shared by the front ends.
const KeyHelp = "space: start/stop  m: mouse  r: rebuild  c: reset path"

// ActionForKey maps a key name to an action.
func ActionForKey(key string) Action {
	switch key {
	case " ", "space":
		return ActionToggleRun
	case "m":
		return ActionToggleMouse
	case "r":
		return ActionRebuild
	case "c":
		return ActionResetClock
	}
	return ActionNone
}

// Handle applies an action to the hosted simulator.
func (g *Game) Handle(a Action) error {
	switch a {
	case ActionToggleRun:
		if g.sim.Running() {
			g.sim.Stop()
			slog.Info("field stopped", "tick", g.sim.Ticks())
		} else {
			if err := g.sim.Start(); err != nil {
				return err
			}
			slog.Info("field started", "tick", g.sim.Ticks())
		}
	case ActionToggleMouse:
		enabled := g.sim.SetMouseState(!g.sim.MouseState())
		slog.Info("mouse input", "enabled", enabled)
	case ActionRebuild:
		if g.surface == nil {
			return nil
		}
		if err := g.sim.Draw(g.surface); err != nil {
			return err
		}
		slog.Info("field rebuilt", "tick", g.sim.Ticks())
	case ActionResetClock:
		return g.resetPath()
	}
	return nil
}

// resetPath restarts the attractor path from time zero. Configured paths keep
// their own stopwatch, so they are rebuilt.
func (g *Game) resetPath() error {
	g.sim.ResetClock()
	fn, err := paths.ByName(g.anim, g.clock)
	if err != nil {
		return fmt.Errorf("animation: %w", err)
	}
	if fn != nil {
		g.sim.SetCustomAnimation(fn)
	}
	slog.Info("path reset", "path", g.anim.Path, "tick", g.sim.Ticks())
	return nil
}

// Pointer forwards a pointer position in surface pixels.
func (g *Game) Pointer(x, y float64) {
	g.sim.Pointer(x, y)
}
