package sensor

import (
	"math"
	"testing"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
)

// medium robot at (70,70) facing 0: leading edge at x=63, y from 60.35 to 79.65
func body() geom.Rect { return geom.Corners(70, 70, 0, 14, 19.3) }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSamples(t *testing.T) {
	s := Samples(body(), 0)
	want := [3]geom.Vec{{63, 67}, {63, 70}, {63, 73}}
	for i := range s {
		if !approx(s[i].X(), want[i].X()) || !approx(s[i].Y(), want[i].Y()) {
			t.Errorf("sample %d: expected %v, got %v", i, want[i], s[i])
		}
	}
}

func TestLineFollower(t *testing.T) {
	tests := []struct {
		name                string
		tapes               []*field.TapeLine
		left, center, right float64
	}{
		{"no tape", nil, 0, 0, 0},
		{"under every sample", []*field.TapeLine{field.NewTapeLine(63, 0, 63, 144, "")}, 1, 1, 1},
		{"vertical two inches away", []*field.TapeLine{field.NewTapeLine(61, 0, 61, 144, "")}, 0.3, 0.3, 0.3},
		{
			"readings add up",
			[]*field.TapeLine{field.NewTapeLine(61, 0, 61, 144, ""), field.NewTapeLine(65, 0, 65, 144, "")},
			0.6, 0.6, 0.6,
		},
		{
			"sum is clamped",
			[]*field.TapeLine{
				field.NewTapeLine(61, 0, 61, 144, ""),
				field.NewTapeLine(65, 0, 65, 144, ""),
				field.NewTapeLine(61.5, 0, 61.5, 144, ""),
			},
			1, 1, 1,
		},
		{"horizontal under right sample", []*field.TapeLine{field.NewTapeLine(0, 67, 144, 67, "")}, 1.2 / 36, 1.2 / 9, 1},
		{"horizontal past its end", []*field.TapeLine{field.NewTapeLine(65, 70, 80, 70, "")}, 1.2 / 13, 0.3, 1.2 / 13},
		{"oblique perpendicular", []*field.TapeLine{field.NewTapeLine(0, 0, 100, 100, "")}, 1.2 / 50, 1.2 / 24.5, 1.2 / 8},
		{"oblique past its end", []*field.TapeLine{field.NewTapeLine(0, 0, 50, 50, "")}, 1.2 / (169 + 529), 1.2 / 569, 1.2 / (169 + 289)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lf LineFollower
			lf.Update(body(), 0, tt.tapes)
			if !approx(lf.Left, tt.left) || !approx(lf.Center, tt.center) || !approx(lf.Right, tt.right) {
				t.Errorf("expected %.4f/%.4f/%.4f, got %.4f/%.4f/%.4f",
					tt.left, tt.center, tt.right, lf.Left, lf.Center, lf.Right)
			}
		})
	}
}

func TestLineFollowerTurned(t *testing.T) {
	// facing 90 the leading edge is y=63 and the samples run along x
	b := geom.Corners(70, 70, 90, 14, 19.3)
	var lf LineFollower
	lf.Update(b, 90, []*field.TapeLine{field.NewTapeLine(0, 63, 144, 63, "")})
	if !approx(lf.Left, 1) || !approx(lf.Center, 1) || !approx(lf.Right, 1) {
		t.Errorf("expected full readings, got %+v", lf)
	}
}

func TestLimitSwitch(t *testing.T) {
	front := field.NewWall(60, 0, 2.5, 144, 0, "")
	back := field.NewWall(77.5, 0, 5, 144, 0, "")
	box := field.NewInteractable(61, 68, 2, 4, "")

	tests := []struct {
		name        string
		obstacles   []field.Object
		carried     field.Object
		front, back bool
	}{
		{"clear", nil, nil, false, false},
		{"wall ahead", []field.Object{front}, nil, true, false},
		{"wall behind", []field.Object{back}, nil, false, true},
		{"both", []field.Object{front, back}, nil, true, true},
		{"far wall", []field.Object{field.NewWall(10, 0, 2, 144, 0, "")}, nil, false, false},
		{"box ahead", []field.Object{box}, nil, true, false},
		{"carried box ignored", []field.Object{box}, box, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ls LimitSwitch
			ls.Update(body(), 0, 19.3, tt.obstacles, tt.carried)
			if ls.Front != tt.front || ls.Back != tt.back {
				t.Errorf("expected front=%v back=%v, got %+v", tt.front, tt.back, ls)
			}
		})
	}
}
