package game

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// pollInterval is how often RunHeadless checks progress in realtime mode.
const pollInterval = 5 * time.Millisecond

// HeadlessSurface discards frames and counts presents.
type HeadlessSurface struct {
	Width, Height int
	Presents      int
}

// Resize records the surface size.
func (s *HeadlessSurface) Resize(w, h int) error {
	s.Width, s.Height = w, h
	return nil
}

// Present counts the frame.
func (s *HeadlessSurface) Present(*image.RGBA) error {
	s.Presents++
	return nil
}

// RunHeadless ticks the field without a display until maxTicks ticks have
// completed (0 = unlimited) or ctx is done. Without realtime mode ticks run
// back to back.
func (g *Game) RunHeadless(ctx context.Context, maxTicks uint64) error {
	if g.surface == nil {
		if err := g.Attach(&HeadlessSurface{}); err != nil {
			return err
		}
	}

	slog.Info("starting headless run",
		"max_ticks", maxTicks,
		"realtime", g.Realtime(),
	)

	var ticker *time.Ticker
	if g.Realtime() {
		ticker = time.NewTicker(pollInterval)
		defer ticker.Stop()
	}

	for {
		if maxTicks > 0 && g.Tick() >= maxTicks {
			g.sim.Stop()
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				g.sim.Stop()
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}

		if err := ctx.Err(); err != nil {
			g.sim.Stop()
			return err
		}
		if !g.Step() {
			// Stopped with nothing pending.
			return nil
		}
	}
}
