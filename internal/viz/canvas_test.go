package viz

import (
	"strings"
	"testing"

	"github.com/san-kum/pimsim/internal/geom"
)

func TestCanvasSet(t *testing.T) {
	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"top left", 0, 0, 0x2801},
		{"top right", 1, 0, 0x2808},
		{"bottom left", 0, 3, 0x2840},
		{"bottom right", 1, 3, 0x2880},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCanvas(2, 2)
			c.Set(tt.x, tt.y)
			if c.Grid[0][0] != tt.want {
				t.Errorf("expected %U, got %U", tt.want, c.Grid[0][0])
			}
		})
	}
}

func TestCanvasOutOfBounds(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(4, 0)
	c.Set(0, 8)
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Error("out of bounds pixels should be ignored")
	}
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(3, 3)
	c.DrawLine(0, 0, 5, 11)
	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != 0x2800 {
				t.Fatalf("expected empty canvas, got %U", r)
			}
		}
	}
}

func TestFit(t *testing.T) {
	c := NewCanvas(60, 30)
	p := Fit(c, 144, 144)
	x, y := p.Point(geom.Vec{144, 144})
	if x >= 120 || y >= 120 {
		t.Errorf("field corner (%d, %d) falls off the canvas", x, y)
	}
	if y != x {
		t.Error("a square field should project square")
	}
}

func TestDrawQuad(t *testing.T) {
	c := NewCanvas(10, 5)
	p := Projector{Scale: 1}
	r := geom.Rect{
		TopL: geom.Vec{2, 2},
		TopR: geom.Vec{10, 2},
		BotR: geom.Vec{10, 10},
		BotL: geom.Vec{2, 10},
	}
	c.DrawQuad(p, r)

	lit := func(x, y int) bool {
		return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
	}
	for _, pt := range [][2]int{{2, 2}, {10, 2}, {10, 10}, {2, 10}, {6, 2}, {2, 6}} {
		if !lit(pt[0], pt[1]) {
			t.Errorf("expected (%d, %d) on the outline", pt[0], pt[1])
		}
	}
	if lit(6, 6) {
		t.Error("the inside should stay empty")
	}
}
