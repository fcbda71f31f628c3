// Particle field on Ebitengine.
//
// Usage: go run ./cmd/fieldebiten [-config config.yaml]
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/ebitenview"
	"github.com/pthm-cable/particlefield/game"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, frames and config snapshot")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	path := flag.String("path", "", "Attractor path override: lissajous, orbit, wander, spring, fixed")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	g, err := game.NewGameWithOptions(cfg, game.Options{
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Path:      *path,
	})
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}

	err = ebitenview.Run(g, cfg.Screen.Title, cfg.Screen.Scale, cfg.Screen.TargetFPS, *maxTicks)
	g.Unload()
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
