package field

import (
	"image"
	"math"
)

// NewFrame allocates a transparent framebuffer for the grid's surface.
func NewFrame(g *Grid) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
}

// Rasterize clears frame and writes one pixel of col per particle. Particles
// whose floored position falls outside the frame are skipped.
func Rasterize(frame *image.RGBA, g *Grid, col [4]uint8) {
	clear(frame.Pix)

	w := frame.Rect.Dx()
	h := frame.Rect.Dy()
	for i := range g.X {
		fx, fy := math.Floor(g.X[i]), math.Floor(g.Y[i])
		// Also rejects NaN.
		if !(fx >= 0 && fx < float64(w) && fy >= 0 && fy < float64(h)) {
			continue
		}
		off := int(fy)*frame.Stride + int(fx)*4
		p := frame.Pix[off : off+4 : off+4]
		p[0] = col[0]
		p[1] = col[1]
		p[2] = col[2]
		p[3] = col[3]
	}
}
