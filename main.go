package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/game"
	"github.com/pthm-cable/particlefield/renderer"
	"github.com/pthm-cable/particlefield/tui"
)

var windowKeys = map[int32]string{
	rl.KeySpace: "space",
	rl.KeyM:     "m",
	rl.KeyR:     "r",
	rl.KeyC:     "c",
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	backend := flag.String("backend", "", "raylib, terminal or headless (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, frames and config snapshot")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	realtime := flag.Bool("realtime", false, "Drive ticks from a timer instead of the display")
	path := flag.String("path", "", "Attractor path override: lissajous, orbit, wander, spring, fixed")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	mode := cfg.Screen.Backend
	if *backend != "" {
		mode = *backend
	}

	// Set up slog (JSON to stdout for structured logging). The terminal
	// backend owns stdout, so its logs go to the output directory instead.
	var logOut io.Writer = os.Stdout
	if mode == "terminal" {
		logOut = io.Discard
		if *outputDir != "" {
			if err := os.MkdirAll(*outputDir, 0755); err != nil {
				slog.Error("failed to create output dir", "error", err)
				os.Exit(1)
			}
			f, err := os.Create(filepath.Join(*outputDir, "run.log"))
			if err != nil {
				slog.Error("failed to create log file", "error", err)
				os.Exit(1)
			}
			defer f.Close()
			logOut = f
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	opts := game.Options{
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Realtime:       *realtime,
		Path:           *path,
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}

	if err := run(g, cfg, mode, *maxTicks); err != nil {
		g.Unload()
		slog.Error("run failed", "backend", mode, "error", err)
		os.Exit(1)
	}
	g.Unload()
}

func run(g *game.Game, cfg *config.Config, mode string, maxTicks uint64) error {
	slog.Info("starting particle field",
		"backend", mode,
		"particles", cfg.Derived.NumParticles,
		"path", cfg.Animation.Path,
		"max_ticks", maxTicks,
	)

	switch mode {
	case "headless":
		if err := g.Attach(&game.HeadlessSurface{}); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := g.RunHeadless(ctx, maxTicks); err != nil && ctx.Err() == nil {
			return err
		}
		return nil

	case "raylib":
		return runWindow(g, cfg, maxTicks)

	case "ebiten":
		return fmt.Errorf("the ebiten backend is built separately: go run ./cmd/fieldebiten")

	case "terminal":
		return tui.Run(g, cfg.Screen.Title, cfg.Screen.TargetFPS, maxTicks)
	}
	return fmt.Errorf("unknown backend %q", mode)
}

// runWindow drives the field from the raylib frame loop.
func runWindow(g *game.Game, cfg *config.Config, maxTicks uint64) error {
	window := renderer.NewWindow(cfg.Screen.Title, cfg.Screen.Scale, cfg.Screen.TargetFPS)
	defer window.Close()

	if err := g.Attach(window); err != nil {
		return err
	}

	hud := renderer.NewHUD()
	perf := renderer.NewPerfPanel(0, 10)

	for !window.ShouldClose() {
		for key, name := range windowKeys {
			if rl.IsKeyPressed(key) {
				if err := g.Handle(game.ActionForKey(name)); err != nil {
					return err
				}
			}
		}
		if x, y, moved := window.Pointer(); moved {
			g.Pointer(x, y)
		}

		g.Step()
		window.Render(func() { drawOverlay(g, hud, perf) })

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
	return nil
}

func drawOverlay(g *game.Game, hud *renderer.HUD, perf *renderer.PerfPanel) {
	sim := g.Sim()
	a := sim.Attractor()
	data := renderer.HUDData{
		Title:     g.Config().Screen.Title,
		Particles: sim.Options().NumParticles(),
		Tick:      sim.Ticks(),
		FPS:       rl.GetFPS(),
		Running:   sim.Running(),
		Manual:    sim.Manual(),
		Mouse:     sim.MouseState(),
		AttrX:     a.X,
		AttrY:     a.Y,
	}
	if stats, ok := g.LatestStats(); ok {
		data.HaveStats = true
		data.ExcitedFrac = stats.ExcitedFrac
		data.MeanDisp = stats.MeanDisplacement
		data.MeanEnergy = stats.MeanEnergy
	}

	hud.Draw(data)
	hud.DrawControls(int32(rl.GetScreenHeight()), game.KeyHelp)

	perf.SetPosition(int32(rl.GetScreenWidth())-230, 10)
	perf.Draw(g.PerfStats())
}
