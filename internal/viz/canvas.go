package viz

import (
	"math"
	"strings"

	"github.com/san-kum/pimsim/internal/geom"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

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
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Projector maps field inches onto canvas sub-pixels. Field y grows
// downward like the canvas.
type Projector struct {
	Scale float64
}

// Fit returns the largest projector that shows a w x h field on c.
func Fit(c *Canvas, w, h float64) Projector {
	sx := float64(c.Width*2-1) / w
	sy := float64(c.Height*4-1) / h
	return Projector{Scale: math.Min(sx, sy)}
}

func (p Projector) Point(v geom.Vec) (int, int) {
	return int(math.Round(v.X() * p.Scale)), int(math.Round(v.Y() * p.Scale))
}

// DrawQuad outlines r.
func (c *Canvas) DrawQuad(p Projector, r geom.Rect) {
	pts := r.Points()
	for i := range pts {
		x0, y0 := p.Point(pts[i])
		x1, y1 := p.Point(pts[(i+1)%len(pts)])
		c.DrawLine(x0, y0, x1, y1)
	}
}

// DrawPath joins consecutive points.
func (c *Canvas) DrawPath(p Projector, pts []geom.Vec) {
	for i := 1; i < len(pts); i++ {
		x0, y0 := p.Point(pts[i-1])
		x1, y1 := p.Point(pts[i])
		c.DrawLine(x0, y0, x1, y1)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
