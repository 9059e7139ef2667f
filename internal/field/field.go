package field

import "github.com/san-kum/pimsim/internal/geom"

const (
	DefaultWidth  = 144.0
	DefaultHeight = 144.0
)

// Field holds the objects of one session. Interactables are listed both in
// Obstacles and in Interactables. Ramp side walls are listed in Obstacles.
//
// A Field is not safe for concurrent use; the session goroutine owns it.
type Field struct {
	Width, Height float64
	Tapes         []*TapeLine
	Obstacles     []Object
	Interactables []*Interactable
	Ramps         []*Ramp
}

func New() *Field {
	return &Field{Width: DefaultWidth, Height: DefaultHeight}
}

// Define replaces every object with the contents of l. An invalid layout
// leaves the field unchanged.
func (f *Field) Define(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	f.Tapes, f.Obstacles, f.Interactables, f.Ramps = nil, nil, nil, nil

	for _, t := range l.TapeLines {
		f.Tapes = append(f.Tapes, NewTapeLine(t.X1, t.Y1, t.X2, t.Y2, t.Color))
	}
	for _, w := range l.Walls {
		f.Obstacles = append(f.Obstacles, NewWall(w.X, w.Y, w.W, w.H, w.Rotate, w.Color))
	}
	for _, b := range l.Interactables {
		obj := NewInteractable(b.X, b.Y, b.W, b.H, b.Color)
		f.Interactables = append(f.Interactables, obj)
		f.Obstacles = append(f.Obstacles, obj)
	}
	for _, r := range l.Ramps {
		incline := DefaultIncline
		if r.Incline != nil {
			incline = *r.Incline
		}
		ramp := NewRamp(r.X, r.Y, r.W, r.H, r.HighSide, incline, r.Color)
		f.Ramps = append(f.Ramps, ramp)
		for _, w := range ramp.sideWalls() {
			f.Obstacles = append(f.Obstacles, w)
		}
	}
	return nil
}

// RampUnder returns the first ramp with any of the given corners strictly
// inside it, or nil.
func (f *Field) RampUnder(body geom.Rect) *Ramp {
	for _, ramp := range f.Ramps {
		for _, p := range body.Points() {
			if ramp.rect.Within(p) {
				return ramp
			}
		}
	}
	return nil
}

// Shape is the render-facing view of one object.
type Shape struct {
	Kind     string    `json:"kind"`
	Color    string    `json:"color"`
	Corners  geom.Rect `json:"corners"`
	WKT      string    `json:"wkt,omitempty"`
	Attached bool      `json:"attached,omitempty"`
	HighSide HighSide  `json:"highSide,omitempty"`
	Incline  float64   `json:"incline,omitempty"`
	Slope    string    `json:"slope,omitempty"`
}

type Snapshot struct {
	TapeLines []Shape `json:"tapeLines"`
	Obstacles []Shape `json:"obstacles"`
	Ramps     []Shape `json:"ramps"`
}

func (f *Field) Snapshot() Snapshot {
	s := Snapshot{
		TapeLines: make([]Shape, 0, len(f.Tapes)),
		Obstacles: make([]Shape, 0, len(f.Obstacles)),
		Ramps:     make([]Shape, 0, len(f.Ramps)),
	}
	for _, t := range f.Tapes {
		s.TapeLines = append(s.TapeLines, describe(t))
	}
	for _, o := range f.Obstacles {
		s.Obstacles = append(s.Obstacles, describe(o))
	}
	for _, r := range f.Ramps {
		s.Ramps = append(s.Ramps, describe(r))
	}
	return s
}

func describe(o Object) Shape {
	sh := Shape{Kind: o.Kind().String(), Color: o.Color(), Corners: o.Corners()}
	switch v := o.(type) {
	case *TapeLine:
		sh.Slope = v.Slope.String()
		return sh
	case *Interactable:
		sh.Attached = v.Attached()
	case *Ramp:
		sh.HighSide = v.HighSide
		sh.Incline = v.Incline
	}
	sh.WKT = sh.Corners.WKT()
	return sh
}
