package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in sub-pixels, two across
// and four down per cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// Set lights the sub-pixel at (x, y); points off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.PixelWidth() || y >= c.PixelHeight() {
		return
	}
	c.Grid[y/4][x/2] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= c.PixelWidth() || y >= c.PixelHeight() {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawDot draws a filled square of side 2r+1 sub-pixels.
func (c *Canvas) DrawDot(x, y, r int) {
	for i := -r; i <= r; i++ {
		for j := -r; j <= r; j++ {
			c.Set(x+i, y+j)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world xy coordinates onto canvas sub-pixels with the world
// origin at the canvas center and +y pointing up.
type Viewport struct {
	Scale float64 // sub-pixels per world unit
}

// Fit chooses a scale so a disc of the given radius fills the canvas.
func Fit(c *Canvas, radius float64) Viewport {
	if radius <= 0 {
		radius = 1
	}
	half := math.Min(float64(c.PixelWidth()), float64(c.PixelHeight())) / 2
	return Viewport{Scale: 0.9 * half / radius}
}

func (v Viewport) Project(c *Canvas, x, y float64) (int, int) {
	cx := float64(c.PixelWidth()) / 2
	cy := float64(c.PixelHeight()) / 2
	return int(math.Round(cx + x*v.Scale)), int(math.Round(cy - y*v.Scale))
}

func (v Viewport) Line(c *Canvas, x0, y0, x1, y1 float64) {
	px0, py0 := v.Project(c, x0, y0)
	px1, py1 := v.Project(c, x1, y1)
	c.DrawLine(px0, py0, px1, py1)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
