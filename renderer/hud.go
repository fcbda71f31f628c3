package renderer

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particlefield/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Tick      uint64
	FPS       int32
	Running   bool
	Manual    bool
	Mouse     bool
	AttrX     float64
	AttrY     float64

	// Latest stats window, if any
	HaveStats   bool
	ExcitedFrac float64
	MeanDisp    float64
	MeanEnergy  float64
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	// Title
	rl.DrawText(data.Title, 10, 10, 20, rl.DarkGray)

	// Field info
	source := "path"
	if data.Manual {
		source = "pointer"
	}
	rl.DrawText(
		fmt.Sprintf("Particles: %d | Attractor: %.0f,%.0f (%s)", data.Particles, data.AttrX, data.AttrY, source),
		10, 35, 16, rl.Gray,
	)

	// Simulation info
	mouse := "off"
	if data.Mouse {
		mouse = "on"
	}
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Mouse: %s", data.Tick, data.FPS, mouse),
		10, 55, 16, rl.Gray,
	)

	if data.HaveStats {
		rl.DrawText(
			fmt.Sprintf("Excited: %.0f%% | Mean disp: %.2f | Energy: %.3f", data.ExcitedFrac*100, data.MeanDisp, data.MeanEnergy),
			10, 75, 16, rl.Gray,
		)
	}

	// Status
	statusText := "Running"
	statusColor := rl.DarkGreen
	if !data.Running {
		statusText = "STOPPED"
		statusColor = rl.Maroon
	}
	rl.DrawText(statusText, 10, 95, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.DarkGray)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s", stats.AvgTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)), x, y, 14, rl.DarkGray)
	y += 16

	for _, phase := range telemetry.Phases {
		avg := stats.PhaseAvg[phase]
		pct := stats.PhasePct[phase]

		color := rl.Gray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
