package field

import (
	"math"
	"testing"
)

func pixelAt(g *Grid, pix []byte, x, y int) [4]uint8 {
	i := (x + y*g.Width) * 4
	return [4]uint8{pix[i], pix[i+1], pix[i+2], pix[i+3]}
}

func TestRasterizeWritesColorAtFlooredPosition(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 2, Spacing: 10, Margin: 5})
	g.X[1], g.Y[1] = 17.9, 6.2
	frame := NewFrame(g)
	col := [4]uint8{10, 20, 30, 255}

	Rasterize(frame, g, col)

	if got := pixelAt(g, frame.Pix, 5, 5); got != col {
		t.Errorf("expected particle 0 at (5,5) with %v, got %v", col, got)
	}
	if got := pixelAt(g, frame.Pix, 17, 6); got != col {
		t.Errorf("expected particle 1 at (17,6) with %v, got %v", col, got)
	}

	var lit int
	for i := 0; i < len(frame.Pix); i += 4 {
		if frame.Pix[i+3] != 0 {
			lit++
		}
	}
	if lit != 2 {
		t.Errorf("expected 2 lit pixels, got %d", lit)
	}
}

func TestRasterizeClearsPreviousFrame(t *testing.T) {
	g := NewGrid(Options{Rows: 1, Cols: 1, Spacing: 10, Margin: 5})
	frame := NewFrame(g)
	col := [4]uint8{0, 0, 0, 255}

	Rasterize(frame, g, col)
	g.X[0] = 12
	Rasterize(frame, g, col)

	if got := pixelAt(g, frame.Pix, 5, 5); got != ([4]uint8{}) {
		t.Errorf("expected old position cleared, got %v", got)
	}
	if got := pixelAt(g, frame.Pix, 12, 5); got != col {
		t.Errorf("expected new position drawn, got %v", got)
	}
}

func TestRasterizeSkipsOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"left", -0.5, 5},
		{"top", 5, -3},
		{"right edge", 20, 5},
		{"bottom edge", 5, 20},
		{"far right wraps row", 25, 2},
		{"nan", math.NaN(), 5},
		{"inf", math.Inf(1), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 20x20 surface with a single particle.
			g := NewGrid(Options{Rows: 1, Cols: 1, Spacing: 10, Margin: 5})
			g.X[0], g.Y[0] = tt.x, tt.y
			frame := NewFrame(g)

			Rasterize(frame, g, [4]uint8{255, 255, 255, 255})

			for i, b := range frame.Pix {
				if b != 0 {
					t.Fatalf("expected no pixels written, byte %d = %d", i, b)
				}
			}
		})
	}
}
