package field

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/pimsim/internal/geom"
)

func TestDefine(t *testing.T) {
	f := New()
	l := Layout{
		Walls:         []WallSpec{{BoxSpec: BoxSpec{X: 0, Y: 0, W: 144, H: 2}}},
		Interactables: []BoxSpec{{X: 30, Y: 30, W: 4, H: 4}},
		Ramps:         []RampSpec{{BoxSpec: BoxSpec{X: 90, Y: 20, W: 20, H: 40}}},
		TapeLines:     []TapeSpec{{X1: 10, Y1: 100, X2: 130, Y2: 100}},
	}
	if err := f.Define(l); err != nil {
		t.Fatalf("define failed: %v", err)
	}

	if len(f.Tapes) != 1 || len(f.Ramps) != 1 || len(f.Interactables) != 1 {
		t.Fatalf("unexpected counts: tapes=%d ramps=%d interactables=%d", len(f.Tapes), len(f.Ramps), len(f.Interactables))
	}
	// wall + interactable + two ramp side walls
	if len(f.Obstacles) != 4 {
		t.Errorf("expected 4 obstacles, got %d", len(f.Obstacles))
	}
	if f.Obstacles[1] != Object(f.Interactables[0]) {
		t.Error("interactable should be shared between lists")
	}
	if f.Ramps[0].HighSide != HighUp || f.Ramps[0].Incline != DefaultIncline {
		t.Errorf("ramp defaults not applied: %+v", f.Ramps[0])
	}
}

func TestDefineInvalidKeepsField(t *testing.T) {
	f := New()
	if err := f.Define(Layout{Walls: []WallSpec{{BoxSpec: BoxSpec{W: 1, H: 1}}}}); err != nil {
		t.Fatal(err)
	}

	bad := Layout{
		Walls: []WallSpec{{BoxSpec: BoxSpec{W: -1, H: 1}}},
		Ramps: []RampSpec{{BoxSpec: BoxSpec{W: 1, H: 1}, HighSide: "sideways"}},
	}
	err := f.Define(bad)
	if !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
	if len(f.Obstacles) != 1 {
		t.Errorf("field should be unchanged, got %d obstacles", len(f.Obstacles))
	}
}

func TestRampSideWalls(t *testing.T) {
	tests := []struct {
		high   HighSide
		first  geom.Rect
		second geom.Rect
	}{
		{HighUp, geom.AxisAligned(9, 20, 1, 40), geom.AxisAligned(30, 20, 1, 40)},
		{HighDown, geom.AxisAligned(9, 20, 1, 40), geom.AxisAligned(30, 20, 1, 40)},
		{HighLeft, geom.AxisAligned(10, 19, 20, 1), geom.AxisAligned(10, 60, 20, 1)},
		{HighRight, geom.AxisAligned(10, 19, 20, 1), geom.AxisAligned(10, 60, 20, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.high), func(t *testing.T) {
			walls := NewRamp(10, 20, 20, 40, tt.high, 15, "").sideWalls()
			if walls[0].Corners() != tt.first {
				t.Errorf("first wall: expected %v, got %v", tt.first, walls[0].Corners())
			}
			if walls[1].Corners() != tt.second {
				t.Errorf("second wall: expected %v, got %v", tt.second, walls[1].Corners())
			}
		})
	}
}

func TestRampPush(t *testing.T) {
	tests := []struct {
		high HighSide
		want geom.Vec
	}{
		{HighUp, geom.Vec{0, 0.15}},
		{HighDown, geom.Vec{0, -0.15}},
		{HighRight, geom.Vec{-0.15, 0}},
		{HighLeft, geom.Vec{0.15, 0}},
	}
	for _, tt := range tests {
		got := NewRamp(0, 0, 1, 1, tt.high, 10, "").Push()
		if math.Abs(got.X()-tt.want.X()) > 1e-12 || math.Abs(got.Y()-tt.want.Y()) > 1e-12 {
			t.Errorf("%s: expected %v, got %v", tt.high, tt.want, got)
		}
	}
}

func TestRampUnder(t *testing.T) {
	f := New()
	f.Ramps = append(f.Ramps, NewRamp(50, 50, 20, 20, HighUp, 15, ""))

	if f.RampUnder(geom.AxisAligned(45, 45, 10, 10)) == nil {
		t.Error("corner at (55,55) should be on the ramp")
	}
	if f.RampUnder(geom.AxisAligned(0, 0, 10, 10)) != nil {
		t.Error("body far away should not be on the ramp")
	}
}

func TestTapeLineSlope(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		slope          Slope
		m, b           float64
	}{
		{"vertical", 5, 0, 5, 10, Vertical, 0, 0},
		{"horizontal", 0, 5, 10, 5, Horizontal, 0, 0},
		{"oblique", 0, 1, 2, 5, Oblique, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewTapeLine(tt.x1, tt.y1, tt.x2, tt.y2, "")
			if l.Slope != tt.slope || l.M != tt.m || l.B != tt.b {
				t.Errorf("expected %v m=%v b=%v, got %v m=%v b=%v", tt.slope, tt.m, tt.b, l.Slope, l.M, l.B)
			}
		})
	}
}

func TestInteractableAttachPlace(t *testing.T) {
	o := NewInteractable(1, 2, 3, 4, "")
	o.Attach(90)
	if !o.Attached() || o.Direction() != 90 {
		t.Fatalf("attach did not record state: %+v", o)
	}
	r := geom.AxisAligned(10, 20, 3, 4)
	o.Place(r, 45)
	if o.Corners() != r || o.X != 10 || o.Y != 20 || o.Direction() != 45 {
		t.Errorf("place did not move object: %+v", o)
	}
	o.Release()
	if o.Attached() {
		t.Error("release should clear attachment")
	}
}

func TestSnapshot(t *testing.T) {
	f := New()
	err := f.Define(Layout{
		Walls:     []WallSpec{{BoxSpec: BoxSpec{X: 0, Y: 0, W: 2, H: 1}}},
		TapeLines: []TapeSpec{{X1: 0, Y1: 0, X2: 0, Y2: 10}},
	})
	if err != nil {
		t.Fatal(err)
	}

	s := f.Snapshot()
	if len(s.Obstacles) != 1 || s.Obstacles[0].Kind != "wall" {
		t.Fatalf("unexpected obstacles: %+v", s.Obstacles)
	}
	if s.Obstacles[0].WKT == "" {
		t.Error("obstacle should carry wkt")
	}
	if len(s.TapeLines) != 1 || s.TapeLines[0].Slope != "vertical" || s.TapeLines[0].WKT != "" {
		t.Errorf("unexpected tape lines: %+v", s.TapeLines)
	}
	if s.Ramps == nil {
		t.Error("ramps should be an empty list, not nil")
	}
}

func TestLayoutRoundTripFile(t *testing.T) {
	incline := 20.0
	l := Layout{
		Walls: []WallSpec{{BoxSpec: BoxSpec{X: 1, Y: 2, W: 3, H: 4, Color: "blue"}, Rotate: 30}},
		Ramps: []RampSpec{{BoxSpec: BoxSpec{X: 5, Y: 5, W: 10, H: 10}, HighSide: HighLeft, Incline: &incline}},
		Start: &StartSpec{X: 40, Y: 40, Dir: "up"},
	}
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := SaveLayout(path, l); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Walls[0].Rotate != 30 || got.Walls[0].Color != "blue" {
		t.Errorf("wall not preserved: %+v", got.Walls[0])
	}
	if got.Ramps[0].Incline == nil || *got.Ramps[0].Incline != 20 {
		t.Errorf("incline not preserved: %+v", got.Ramps[0])
	}
	if got.Start == nil || got.Start.Dir != "up" {
		t.Errorf("start not preserved: %+v", got.Start)
	}
}

func TestStartDirection(t *testing.T) {
	for name, want := range map[string]float64{"": 0, "left": 0, "up": 90, "right": 180, "down": 270} {
		got, ok := StartDirection(name)
		if !ok || got != want {
			t.Errorf("%q: expected %v, got %v (%v)", name, want, got, ok)
		}
	}
	if _, ok := StartDirection("north"); ok {
		t.Error("north should not be a valid direction")
	}
}
