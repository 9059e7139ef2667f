package field

import (
	"fmt"

	"github.com/san-kum/pimsim/internal/geom"
)

type Kind int

const (
	KindWall Kind = iota
	KindInteractable
	KindRamp
	KindTape
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindInteractable:
		return "interactable"
	case KindRamp:
		return "ramp"
	case KindTape:
		return "tapeLine"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Object is a field entity. The concrete types are *Wall, *Interactable,
// *Ramp and *TapeLine; callers switch on the type for variant behaviour.
type Object interface {
	Kind() Kind
	Corners() geom.Rect
	Color() string
}

type shape struct {
	X, Y, W, H float64
	color      string
	rect       geom.Rect
}

func (s *shape) Corners() geom.Rect { return s.rect }
func (s *shape) Color() string      { return s.color }

type Wall struct {
	shape
	Rotate float64
}

func NewWall(x, y, w, h, rotate float64, color string) *Wall {
	if color == "" {
		color = "black"
	}
	return &Wall{
		shape:  shape{X: x, Y: y, W: w, H: h, color: color, rect: geom.Rotated(x, y, w, h, rotate)},
		Rotate: rotate,
	}
}

func (*Wall) Kind() Kind { return KindWall }

// Interactable can be picked up by the robot and carried rigidly in front
// of it until dropped.
type Interactable struct {
	shape
	attached  bool
	direction float64
}

func NewInteractable(x, y, w, h float64, color string) *Interactable {
	if color == "" {
		color = "red"
	}
	return &Interactable{
		shape: shape{X: x, Y: y, W: w, H: h, color: color, rect: geom.AxisAligned(x, y, w, h)},
	}
}

func (*Interactable) Kind() Kind { return KindInteractable }

func (o *Interactable) Attached() bool     { return o.attached }
func (o *Interactable) Direction() float64 { return o.direction }

func (o *Interactable) Attach(dir float64) {
	o.attached = true
	o.direction = dir
}

func (o *Interactable) Release() { o.attached = false }

// Place moves a carried object to new corners facing dir.
func (o *Interactable) Place(r geom.Rect, dir float64) {
	o.rect = r
	o.X, o.Y = r.TopL.X(), r.TopL.Y()
	o.direction = dir
}

type HighSide string

const (
	HighUp    HighSide = "up"
	HighDown  HighSide = "down"
	HighLeft  HighSide = "left"
	HighRight HighSide = "right"
)

func (h HighSide) Valid() bool {
	switch h {
	case HighUp, HighDown, HighLeft, HighRight:
		return true
	}
	return false
}

const (
	DefaultIncline = 15.0
	// RampPush is the per-tick displacement, in inches per degree of
	// incline, a ramp applies toward its low side.
	RampPush = 0.015
)

type Ramp struct {
	shape
	HighSide HighSide
	Incline  float64
}

func NewRamp(x, y, w, h float64, high HighSide, incline float64, color string) *Ramp {
	if high == "" {
		high = HighUp
	}
	if color == "" {
		color = "black"
	}
	return &Ramp{
		shape:    shape{X: x, Y: y, W: w, H: h, color: color, rect: geom.AxisAligned(x, y, w, h)},
		HighSide: high,
		Incline:  incline,
	}
}

func (*Ramp) Kind() Kind { return KindRamp }

// Push returns the displacement the ramp adds to a body resting on it.
func (r *Ramp) Push() geom.Vec {
	d := r.Incline * RampPush
	switch r.HighSide {
	case HighUp:
		return geom.Vec{0, d}
	case HighDown:
		return geom.Vec{0, -d}
	case HighRight:
		return geom.Vec{-d, 0}
	case HighLeft:
		return geom.Vec{d, 0}
	}
	return geom.Vec{}
}

// sideWalls returns the two 1-inch rails along the ramp's non-sloped edges.
func (r *Ramp) sideWalls() [2]*Wall {
	c := r.rect
	if r.HighSide == HighLeft || r.HighSide == HighRight {
		return [2]*Wall{
			NewWall(c.TopL.X(), c.TopL.Y()-1, r.W, 1, 0, r.color),
			NewWall(c.BotL.X(), c.BotL.Y(), r.W, 1, 0, r.color),
		}
	}
	return [2]*Wall{
		NewWall(c.TopL.X()-1, c.TopL.Y(), 1, r.H, 0, r.color),
		NewWall(c.TopR.X(), c.TopR.Y(), 1, r.H, 0, r.color),
	}
}

type Slope int

const (
	Oblique Slope = iota
	Vertical
	Horizontal
)

func (s Slope) String() string {
	switch s {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "oblique"
	}
}

// TapeLine is a strip of tape the line follower can see. Oblique lines
// carry their slope M and intercept B.
type TapeLine struct {
	Start, End geom.Vec
	Slope      Slope
	M, B       float64
	color      string
}

func NewTapeLine(x1, y1, x2, y2 float64, color string) *TapeLine {
	if color == "" {
		color = "green"
	}
	t := &TapeLine{Start: geom.Vec{x1, y1}, End: geom.Vec{x2, y2}, color: color}
	switch {
	case x1 == x2:
		t.Slope = Vertical
	case y1 == y2:
		t.Slope = Horizontal
	default:
		t.M = (y1 - y2) / (x1 - x2)
		t.B = y1 - t.M*x1
	}
	return t
}

func (*TapeLine) Kind() Kind           { return KindTape }
func (t *TapeLine) Corners() geom.Rect { return geom.Segment(t.Start, t.End) }
func (t *TapeLine) Color() string      { return t.color }
