// Package tui presents the particle field in a terminal with Bubble Tea.
package tui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/pthm-cable/particlefield/field"
	"github.com/pthm-cable/particlefield/game"
	"github.com/pthm-cable/particlefield/telemetry"
)

const (
	historyCapacity = 120
	// chromeLines is everything below the canvas: status, bar, graph, help.
	chromeLines = 12
	// canvasTop is the terminal row the canvas starts on.
	canvasTop = 1
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	canvasStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "235", Dark: "252"})
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model drives a game from Bubble Tea ticks and draws its frames as braille.
type Model struct {
	game     *game.Game
	canvas   *Canvas
	title    string
	interval time.Duration
	maxTicks uint64

	width, height int
	energy        []float64
	excited       progress.Model
	err           error
	quitting      bool
}

// New creates a model for g. maxTicks ends the program when reached (0 = unlimited).
func New(g *game.Game, title string, targetFPS int, maxTicks uint64) Model {
	interval := field.FallbackInterval
	if targetFPS > 0 {
		interval = time.Second / time.Duration(targetFPS)
	}
	bar := progress.New(
		progress.WithScaledGradient("#5FD7AF", "#FF5F87"),
		progress.WithoutPercentage(),
	)
	bar.Width = 30
	return Model{
		game:     g,
		canvas:   NewCanvas(80, 20),
		title:    title,
		interval: interval,
		maxTicks: maxTicks,
		excited:  bar,
	}
}

// Canvas returns the surface the model draws. Attach it to the game before
// running the program.
func (m Model) Canvas() *Canvas {
	return m.canvas
}

// Err returns the error that ended the program, if any.
func (m Model) Err() error {
	return m.err
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.game.Step()
		m.sampleEnergy()
		if m.maxTicks > 0 && m.game.Tick() >= m.maxTicks {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tickCmd(m.interval)

	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			return m, tea.Quit
		}
		if err := m.game.Handle(game.ActionForKey(msg.String())); err != nil {
			m.err = err
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionMotion {
			return m, nil
		}
		if x, y, ok := m.canvas.SurfacePoint(msg.X, msg.Y-canvasTop); ok {
			m.game.Pointer(x, y)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.SetCells(max(msg.Width, 1), max(msg.Height-canvasTop-chromeLines, 1))
		m.excited.Width = min(max(msg.Width-24, 10), 40)
		return m, nil
	}
	return m, nil
}

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func (m *Model) sampleEnergy() {
	var e float64
	m.game.Sim().View(func(g *field.Grid, _ *image.RGBA) {
		e = telemetry.KineticEnergy(g)
	})
	m.energy = append(m.energy, e)
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[len(m.energy)-historyCapacity:]
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title))
	b.WriteByte('\n')
	b.WriteString(canvasStyle.Render(m.canvas.String()))
	b.WriteString("\n\n")
	b.WriteString(m.statusLine())
	b.WriteByte('\n')

	stats, ok := m.game.LatestStats()
	frac := 0.0
	if ok {
		frac = stats.ExcitedFrac
	}
	b.WriteString(labelStyle.Render("excited  "))
	b.WriteString(m.excited.ViewAs(frac))
	b.WriteString(valueStyle.Render(fmt.Sprintf("  %.0f%%", frac*100)))
	b.WriteByte('\n')

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		b.WriteString(graphStyle.Render(chart))
		b.WriteByte('\n')
	}
	b.WriteString(helpStyle.Render(game.KeyHelp + "  q: quit"))
	return b.String()
}

func (m Model) statusLine() string {
	sim := m.game.Sim()
	a := sim.Attractor()

	state := "stopped"
	if sim.Running() {
		state = "running"
	}
	source := "path"
	if sim.Manual() {
		source = "pointer"
	}
	mouse := "off"
	if sim.MouseState() {
		mouse = "on"
	}

	parts := []string{
		activeStyle.Render(state),
		labelStyle.Render("tick ") + valueStyle.Render(fmt.Sprintf("%d", sim.Ticks())),
		labelStyle.Render("attractor ") + valueStyle.Render(fmt.Sprintf("%.0f,%.0f (%s)", a.X, a.Y, source)),
		labelStyle.Render("mouse ") + valueStyle.Render(mouse),
	}
	return strings.Join(parts, "  ")
}

// Run attaches a terminal canvas to g and runs the program until it quits.
func Run(g *game.Game, title string, targetFPS int, maxTicks uint64) error {
	m := New(g, title, targetFPS, maxTicks)
	if err := g.Attach(m.Canvas()); err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
