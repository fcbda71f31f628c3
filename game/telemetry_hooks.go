package game

import (
	"log/slog"

	"github.com/pthm-cable/particlefield/field"
	"github.com/pthm-cable/particlefield/telemetry"
)

// onTick runs at the end of every tick while the simulator is locked, so it
// must not call back into g.sim.
func (g *Game) onTick(info field.TickInfo) {
	if info.Grid != g.lastGrid {
		// Fresh grid from Draw: drop the partial window.
		if g.lastGrid != nil {
			g.collector.Reset(info.Tick - 1)
		}
		g.lastGrid = info.Grid
	}

	if g.frameEvery > 0 && info.Tick%uint64(g.frameEvery) == 0 {
		g.writeFrame(info)
	}

	if stats, ok := g.collector.Record(info); ok {
		g.flushTelemetry(stats)
	}
}

// flushTelemetry publishes a finished stats window and handles bookmarks.
func (g *Game) flushTelemetry(stats telemetry.WindowStats) {
	perfStats := g.perfCollector.Stats()

	g.mu.Lock()
	g.lastStats = stats
	g.haveStats = true
	g.mu.Unlock()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// writeFrame encodes the current framebuffer to the output directory.
func (g *Game) writeFrame(info field.TickInfo) {
	if g.outputManager == nil {
		return
	}
	path, err := g.outputManager.WriteFrame(info.Frame, info.Tick)
	if err != nil {
		slog.Error("failed to write frame", "error", err)
		return
	}
	slog.Debug("frame written", "path", path, "tick", info.Tick)
}
