// Package renderer presents the particle field in a raylib window.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Background is drawn behind the transparent framebuffer.
var Background = rl.RayWhite

// Window is a field.Surface backed by a raylib window. Resize and Render
// must run on the thread that owns the window; Present may run anywhere.
type Window struct {
	title     string
	scale     int
	targetFPS int

	open    bool
	width   int
	height  int
	texture FieldTexture

	mu      sync.Mutex
	pending []color.RGBA
	dirty   bool
}

// NewWindow creates a window surface. The OS window opens on the first Resize.
func NewWindow(title string, scale, targetFPS int) *Window {
	if scale < 1 {
		scale = 1
	}
	return &Window{title: title, scale: scale, targetFPS: targetFPS}
}

// Resize opens the window, or resizes it, to fit a width x height surface.
func (w *Window) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("renderer: invalid surface size %dx%d", width, height)
	}
	sw, sh := int32(width*w.scale), int32(height*w.scale)
	if !w.open {
		rl.InitWindow(sw, sh, w.title)
		if !rl.IsWindowReady() {
			return fmt.Errorf("renderer: window failed to open")
		}
		if w.targetFPS > 0 {
			rl.SetTargetFPS(int32(w.targetFPS))
		}
		w.open = true
	} else {
		rl.SetWindowSize(int(sw), int(sh))
	}

	w.width, w.height = width, height
	w.texture.Init(width, height)

	w.mu.Lock()
	w.pending = make([]color.RGBA, width*height)
	w.dirty = false
	w.mu.Unlock()
	return nil
}

// Present copies frame for upload on the next Render.
func (w *Window) Present(frame *image.RGBA) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(frame.Pix) != len(w.pending)*4 {
		return fmt.Errorf("renderer: frame of %d bytes for a %dx%d window", len(frame.Pix), w.width, w.height)
	}
	pix := frame.Pix
	for i := range w.pending {
		o := i * 4
		w.pending[i] = color.RGBA{R: pix[o], G: pix[o+1], B: pix[o+2], A: pix[o+3]}
	}
	w.dirty = true
	return nil
}

// Render uploads the latest frame and draws it, then calls overlay, if set,
// inside the same drawing pass.
func (w *Window) Render(overlay func()) {
	w.mu.Lock()
	if w.dirty {
		w.texture.Update(w.pending)
		w.dirty = false
	}
	w.mu.Unlock()

	rl.BeginDrawing()
	rl.ClearBackground(Background)
	w.texture.Draw(float32(w.scale))
	if overlay != nil {
		overlay()
	}
	rl.EndDrawing()
}

// Pointer returns the cursor position in surface pixels and whether it moved
// since the last frame.
func (w *Window) Pointer() (x, y float64, moved bool) {
	d := rl.GetMouseDelta()
	if d.X == 0 && d.Y == 0 {
		return 0, 0, false
	}
	p := rl.GetMousePosition()
	s := float64(w.scale)
	return float64(p.X) / s, float64(p.Y) / s, true
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.open && rl.WindowShouldClose()
}

// Close releases the texture and closes the window.
func (w *Window) Close() {
	if !w.open {
		return
	}
	w.texture.Unload()
	rl.CloseWindow()
	w.open = false
}
