// Field preview tool - interactive tuning of the particle field with sliders.
//
// Usage: go run ./cmd/fieldpreview [-config config.yaml]
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/particlefield/config"
	"github.com/pthm-cable/particlefield/field"
	"github.com/pthm-cable/particlefield/paths"
	"github.com/pthm-cable/particlefield/renderer"
	"github.com/pthm-cable/particlefield/telemetry"
)

const (
	windowWidth  = 1100
	windowHeight = 720
	previewW     = 760
	previewH     = 520
	panelWidth   = windowWidth - previewW - 30
)

// previewSurface uploads presented frames to a texture. Ticks run from the
// frame loop, so it needs no locking.
type previewSurface struct {
	tex    renderer.FieldTexture
	pixels []color.RGBA
	dirty  bool
}

func (p *previewSurface) Resize(w, h int) error {
	p.tex.Init(w, h)
	p.pixels = make([]color.RGBA, w*h)
	p.dirty = false
	return nil
}

func (p *previewSurface) Present(frame *image.RGBA) error {
	if len(frame.Pix) != len(p.pixels)*4 {
		return fmt.Errorf("frame of %d bytes for %d pixels", len(frame.Pix), len(p.pixels))
	}
	for i := range p.pixels {
		o := i * 4
		p.pixels[i] = color.RGBA{R: frame.Pix[o], G: frame.Pix[o+1], B: frame.Pix[o+2], A: frame.Pix[o+3]}
	}
	p.dirty = true
	return nil
}

// dest fits the surface inside the preview area, keeping its aspect ratio.
func (p *previewSurface) dest() (rl.Rectangle, float32) {
	w, h := p.tex.Size()
	if w == 0 || h == 0 {
		return rl.Rectangle{X: 10, Y: 10}, 1
	}
	scale := float32(math.Min(float64(previewW)/float64(w), float64(previewH)/float64(h)))
	return rl.Rectangle{X: 10, Y: 10, Width: float32(w) * scale, Height: float32(h) * scale}, scale
}

// FieldParams holds the tunable shape and response
type FieldParams struct {
	RadiusPx float32
	Spacing  int
	Rows     int
	Cols     int
	Margin   int
}

func paramsFrom(cfg *config.Config) FieldParams {
	return FieldParams{
		RadiusPx: float32(math.Sqrt(cfg.Field.Radius)),
		Spacing:  cfg.Field.Spacing,
		Rows:     cfg.Field.Rows,
		Cols:     cfg.Field.Cols,
		Margin:   cfg.Field.Margin,
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rl.InitWindow(windowWidth, windowHeight, "Particle Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	defaults := paramsFrom(cfg)
	params := defaults
	pathIdx := 0
	for i, name := range paths.Names {
		if name == cfg.Animation.Path {
			pathIdx = i
		}
	}

	frames := field.NewFrameScheduler()
	sim := field.New(
		field.Configure(cfg.FieldOptions()...),
		field.WithScheduler(frames),
	)
	defer sim.Close()

	surface := &previewSurface{}
	defer surface.tex.Unload()

	setPath := func(idx int) {
		anim := cfg.Animation
		anim.Path = paths.Names[idx]
		fn, err := paths.ByName(anim, time.Now)
		if err != nil {
			slog.Error("failed to build path", "path", anim.Path, "error", err)
			return
		}
		sim.SetCustomAnimation(fn)
	}
	setPath(pathIdx)

	rebuild := func() {
		sim.SetOptions(
			field.WithGrid(params.Rows, params.Cols),
			field.WithSpacing(params.Spacing),
			field.WithMargin(params.Margin),
			field.WithRadiusPixels(float64(params.RadiusPx)),
		)
		if err := sim.Draw(surface); err != nil {
			slog.Error("failed to rebuild field", "error", err)
		}
	}
	rebuild()

	var snap telemetry.FieldSnapshot
	var dispBuf []float64
	needsRebuild := false

	for !rl.WindowShouldClose() {
		if needsRebuild {
			rebuild()
			needsRebuild = false
		}

		dst, scale := surface.dest()
		if d := rl.GetMouseDelta(); d.X != 0 || d.Y != 0 {
			m := rl.GetMousePosition()
			if rl.CheckCollisionPointRec(m, dst) {
				sim.Pointer(float64((m.X-dst.X)/scale), float64((m.Y-dst.Y)/scale))
			}
		}

		frames.Pump()
		if surface.dirty {
			surface.tex.Update(surface.pixels)
			surface.dirty = false
		}
		sim.View(func(g *field.Grid, _ *image.RGBA) {
			snap, dispBuf = telemetry.ComputeFieldSnapshot(g, cfg.Telemetry.ExcitedThreshold, dispBuf)
		})

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		surface.tex.DrawRect(dst)
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.LightGray)

		// Draw stats
		opts := sim.Options()
		statsY := int32(previewH + 25)
		rl.DrawText(fmt.Sprintf("Particles: %d  Surface: %dx%d  Tick: %d", opts.NumParticles(), int(dst.Width/scale), int(dst.Height/scale), sim.Ticks()), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Mean disp: %.2f  P90: %.2f  Max: %.2f", snap.MeanDisplacement, snap.P90Displacement, snap.MaxDisplacement), 15, statsY+20, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Energy: %.4f  Excited: %d", snap.KineticEnergy, snap.Excited), 15, statsY+40, 16, rl.DarkGray)
		a := sim.Attractor()
		rl.DrawText(fmt.Sprintf("Attractor: %.0f,%.0f  Manual: %v", a.X, a.Y, sim.Manual()), 15, statsY+60, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		// Radius slider
		rl.DrawText("Radius (influence, px)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newRadius := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"5", "200",
			params.RadiusPx, 5, 200,
		)
		rl.DrawText(fmt.Sprintf("%.0f", params.RadiusPx), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newRadius != params.RadiusPx {
			params.RadiusPx = newRadius
			sim.SetOptions(field.WithRadiusPixels(float64(newRadius)))
		}
		panelY += 35

		// Shape sliders rebuild the grid
		for _, s := range []struct {
			label    string
			value    *int
			min, max int
		}{
			{"Spacing (px between rest points)", &params.Spacing, 1, 12},
			{"Rows", &params.Rows, 5, 200},
			{"Cols", &params.Cols, 5, 300},
			{"Margin (px)", &params.Margin, 0, 80},
		} {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				fmt.Sprint(s.min), fmt.Sprint(s.max),
				float32(*s.value), float32(s.min), float32(s.max),
			)
			rl.DrawText(fmt.Sprintf("%d", *s.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if int(v) != *s.value {
				*s.value = int(v)
				needsRebuild = true
			}
			panelY += 35
		}

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(sim.Running(), "Stop", "Start")) {
			if sim.Running() {
				sim.Stop()
			} else if err := sim.Start(); err != nil {
				slog.Error("failed to start field", "error", err)
			}
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(sim.MouseState(), "Mouse: on", "Mouse: off")) {
			sim.SetMouseState(!sim.MouseState())
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Path: "+paths.Names[pathIdx]) {
			pathIdx = (pathIdx + 1) % len(paths.Names)
			setPath(pathIdx)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Rebuild") {
			needsRebuild = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset Path") {
			sim.ResetClock()
			setPath(pathIdx)
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRebuild = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		for _, line := range yamlLines(params, paths.Names[pathIdx]) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		// Instructions
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		// Copy to clipboard on C key
		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range yamlLines(params, paths.Names[pathIdx]) {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

func yamlLines(p FieldParams, path string) []string {
	return []string{
		"field:",
		fmt.Sprintf("  rows: %d", p.Rows),
		fmt.Sprintf("  cols: %d", p.Cols),
		fmt.Sprintf("  spacing: %d", p.Spacing),
		fmt.Sprintf("  margin: %d", p.Margin),
		fmt.Sprintf("  radius: %.0f", float64(p.RadiusPx)*float64(p.RadiusPx)),
		"animation:",
		fmt.Sprintf("  path: %s", path),
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
