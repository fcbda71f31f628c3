package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// FieldTexture holds the GPU copy of the particle framebuffer.
type FieldTexture struct {
	tex         rl.Texture2D
	texW, texH  int
	initialized bool
}

// Init creates a transparent texture of the given size (must be called after
// the raylib window is created).
func (t *FieldTexture) Init(w, h int) {
	if t.initialized && t.texW == w && t.texH == h {
		return
	}
	t.Unload()

	img := rl.GenImageColor(w, h, rl.Blank)
	t.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(t.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	t.texW = w
	t.texH = h
	t.initialized = true
}

// Update uploads pixels, which must hold exactly w*h entries.
func (t *FieldTexture) Update(pixels []color.RGBA) {
	if !t.initialized || len(pixels) != t.texW*t.texH {
		return
	}
	rl.UpdateTexture(t.tex, pixels)
}

// Draw renders the texture at the origin scaled by scale.
func (t *FieldTexture) Draw(scale float32) {
	t.DrawRect(rl.Rectangle{Width: float32(t.texW) * scale, Height: float32(t.texH) * scale})
}

// DrawRect renders the texture stretched over dst.
func (t *FieldTexture) DrawRect(dst rl.Rectangle) {
	if !t.initialized {
		return
	}
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(t.texW), Height: float32(t.texH)}
	rl.DrawTexturePro(t.tex, srcRect, dst, rl.Vector2{}, 0, rl.White)
}

// Size returns the texture size in pixels.
func (t *FieldTexture) Size() (w, h int) {
	return t.texW, t.texH
}

// Unload frees GPU resources.
func (t *FieldTexture) Unload() {
	if !t.initialized {
		return
	}
	rl.UnloadTexture(t.tex)
	t.initialized = false
}
