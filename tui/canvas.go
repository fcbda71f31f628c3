package tui

import (
	"fmt"
	"image"
	"strings"
	"sync"
)

// brailleBase is U+2800, the empty braille pattern.
const brailleBase = 0x2800

// brailleBits maps a dot at (x, y) within a 2x4 cell to its pattern bit.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a field.Surface that downsamples each frame to braille cells.
type Canvas struct {
	mu     sync.Mutex
	cols   int
	rows   int
	width  int
	height int
	cells  []uint8
	text   string
}

// NewCanvas creates a canvas of cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{}
	c.SetCells(cols, rows)
	return c
}

// SetCells changes the terminal area. The next Present redraws at the new size.
func (c *Canvas) SetCells(cols, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cols, c.rows = max(cols, 1), max(rows, 1)
	c.cells = make([]uint8, c.cols*c.rows)
	c.text = blank(c.cols, c.rows)
}

// Cells returns the terminal area in cells.
func (c *Canvas) Cells() (cols, rows int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cols, c.rows
}

// Resize records the surface size in pixels.
func (c *Canvas) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("tui: invalid surface size %dx%d", width, height)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	return nil
}

// Present sets every braille dot whose pixel block holds a visible pixel.
func (c *Canvas) Present(frame *image.RGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if w != c.width || h != c.height {
		return fmt.Errorf("tui: frame %dx%d for a %dx%d surface", w, h, c.width, c.height)
	}
	clear(c.cells)

	dotsX, dotsY := c.cols*2, c.rows*4
	for y := 0; y < h; y++ {
		dy := y * dotsY / h
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			dx := x * dotsX / w
			c.cells[(dy/4)*c.cols+dx/2] |= brailleBits[dy%4][dx%2]
		}
	}

	var sb strings.Builder
	sb.Grow(c.rows * (c.cols*3 + 1))
	for r := 0; r < c.rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for _, bits := range c.cells[r*c.cols : (r+1)*c.cols] {
			sb.WriteRune(rune(brailleBase + int(bits)))
		}
	}
	c.text = sb.String()
	return nil
}

// String returns the last presented frame as braille text.
func (c *Canvas) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SurfacePoint maps the centre of a terminal cell to surface pixels. It
// reports false outside the canvas.
func (c *Canvas) SurfacePoint(col, row int) (x, y float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows || c.width == 0 {
		return 0, 0, false
	}
	x = (float64(col) + 0.5) * float64(c.width) / float64(c.cols)
	y = (float64(row) + 0.5) * float64(c.height) / float64(c.rows)
	return x, y, true
}

func blank(cols, rows int) string {
	line := strings.Repeat(string(rune(brailleBase)), cols)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
