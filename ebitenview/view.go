// Package ebitenview presents the particle field through Ebitengine.
package ebitenview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/pthm-cable/particlefield/game"
)

// Background is drawn behind the transparent framebuffer.
var Background = color.RGBA{R: 245, G: 245, B: 245, A: 255}

var keys = map[ebiten.Key]string{
	ebiten.KeySpace: "space",
	ebiten.KeyM:     "m",
	ebiten.KeyR:     "r",
	ebiten.KeyC:     "c",
}

// View is both an ebiten.Game and a field.Surface. Each Update runs the tick
// requested for that frame.
type View struct {
	game     *game.Game
	scale    int
	maxTicks uint64

	mu      sync.Mutex
	width   int
	height  int
	pending []byte
	dirty   bool

	img          *ebiten.Image
	lastX, lastY int
	overlay      bool
}

// New creates a view for g. maxTicks ends the run when reached (0 = unlimited).
func New(g *game.Game, scale int, maxTicks uint64) *View {
	if scale < 1 {
		scale = 1
	}
	return &View{game: g, scale: scale, maxTicks: maxTicks, lastX: -1, lastY: -1, overlay: true}
}

// Resize sizes the window for a width x height surface.
func (v *View) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("ebitenview: invalid surface size %dx%d", width, height)
	}
	v.mu.Lock()
	v.width, v.height = width, height
	v.pending = make([]byte, width*height*4)
	v.dirty = false
	v.mu.Unlock()

	ebiten.SetWindowSize(width*v.scale, height*v.scale)
	return nil
}

// Present copies frame for the next Draw.
func (v *View) Present(frame *image.RGBA) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(frame.Pix) != len(v.pending) {
		return fmt.Errorf("ebitenview: frame of %d bytes for a %dx%d view", len(frame.Pix), v.width, v.height)
	}
	copy(v.pending, frame.Pix)
	v.dirty = true
	return nil
}

// Update handles input and runs the pending tick.
func (v *View) Update() error {
	for k, name := range keys {
		if inpututil.IsKeyJustPressed(k) {
			if err := v.game.Handle(game.ActionForKey(name)); err != nil {
				return err
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.overlay = !v.overlay
	}

	mx, my := ebiten.CursorPosition()
	if mx != v.lastX || my != v.lastY {
		if v.lastX >= 0 {
			v.game.Pointer(float64(mx), float64(my))
		}
		v.lastX, v.lastY = mx, my
	}

	v.game.Step()

	if v.maxTicks > 0 && v.game.Tick() >= v.maxTicks {
		return ebiten.Termination
	}
	return nil
}

// Draw uploads the latest frame and draws it over the background.
func (v *View) Draw(screen *ebiten.Image) {
	screen.Fill(Background)

	v.mu.Lock()
	if v.img == nil || v.img.Bounds().Dx() != v.width || v.img.Bounds().Dy() != v.height {
		if v.img != nil {
			v.img.Deallocate()
		}
		v.img = ebiten.NewImage(v.width, v.height)
		v.dirty = true
	}
	if v.dirty {
		v.img.WritePixels(v.pending)
		v.dirty = false
	}
	v.mu.Unlock()

	screen.DrawImage(v.img, nil)

	if v.overlay {
		ebitenutil.DebugPrint(screen, v.status())
	}
}

// Layout keeps the logical screen at surface resolution.
func (v *View) Layout(_, _ int) (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return max(v.width, 1), max(v.height, 1)
}

func (v *View) status() string {
	sim := v.game.Sim()
	mode := "auto"
	if sim.Manual() {
		mode = "manual"
	}
	return fmt.Sprintf("tick %d  %s  mouse %v  %.0f tps\n%s",
		sim.Ticks(), mode, sim.MouseState(), ebiten.ActualTPS(), game.KeyHelp)
}

// Run attaches the view and blocks until the window closes or maxTicks is reached.
func Run(g *game.Game, title string, scale, targetFPS int, maxTicks uint64) error {
	v := New(g, scale, maxTicks)
	if err := g.Attach(v); err != nil {
		return err
	}

	ebiten.SetWindowTitle(title)
	if targetFPS > 0 {
		ebiten.SetTPS(targetFPS)
	}
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("ebiten: %w", err)
	}
	return nil
}
