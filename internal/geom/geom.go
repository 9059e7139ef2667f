package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a point or displacement on the field, in inches.
type Vec = mgl64.Vec2

// Rect is a convex quadrilateral described by its four corners. Corners of
// rotated shapes are stored already rotated.
type Rect struct {
	TopL Vec `json:"topL"`
	TopR Vec `json:"topR"`
	BotL Vec `json:"botL"`
	BotR Vec `json:"botR"`
}

// Points returns the corners in drawing order.
func (r Rect) Points() [4]Vec {
	return [4]Vec{r.TopL, r.TopR, r.BotR, r.BotL}
}

func (r Rect) Center() Vec {
	return r.TopL.Add(r.TopR).Add(r.BotL).Add(r.BotR).Mul(0.25)
}

// Within reports whether p lies strictly inside the axis-aligned bounds
// spanned by TopL, TopR and BotL.
func (r Rect) Within(p Vec) bool {
	return p.X() > r.TopL.X() && p.X() < r.TopR.X() &&
		p.Y() > r.TopL.Y() && p.Y() < r.BotL.Y()
}

// Translate shifts every corner by d.
func (r Rect) Translate(d Vec) Rect {
	return Rect{TopL: r.TopL.Add(d), TopR: r.TopR.Add(d), BotL: r.BotL.Add(d), BotR: r.BotR.Add(d)}
}

func Radians(deg float64) float64 { return deg * math.Pi / 180 }

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Corners returns the corners of a width x height body centered on (x, y)
// and facing dir degrees. Height runs along the heading axis.
func Corners(x, y, dir, height, width float64) Rect {
	sin, cos := math.Sincos(Radians(dir))
	hc, hs := height/2*cos, height/2*sin
	wc, ws := width/2*cos, width/2*sin
	return Rect{
		TopR: Vec{x - hc + ws, y - hs - wc},
		TopL: Vec{x - hc - ws, y - hs + wc},
		BotL: Vec{x + hc - ws, y + hs + wc},
		BotR: Vec{x + hc + ws, y + hs - wc},
	}
}

// AxisAligned returns the corners of a w x h rectangle anchored at its
// top-left corner (x, y).
func AxisAligned(x, y, w, h float64) Rect {
	return Rect{
		TopL: Vec{x, y},
		TopR: Vec{x + w, y},
		BotL: Vec{x, y + h},
		BotR: Vec{x + w, y + h},
	}
}

// Rotated returns the corners of a w x h rectangle anchored at (x, y) and
// turned clockwise on screen by rotate degrees around that anchor.
func Rotated(x, y, w, h, rotate float64) Rect {
	if rotate == 0 {
		return AxisAligned(x, y, w, h)
	}
	sin, cos := math.Sincos(Radians(360 - rotate))
	return Rect{
		TopL: Vec{x, y},
		TopR: Vec{x + w*cos, y + w*sin},
		BotL: Vec{x - h*sin, y + h*cos},
		BotR: Vec{x + w*cos - h*sin, y + w*sin + h*cos},
	}
}

// Ahead returns a w x h region whose base is centered on the leading edge
// of body. bodyWidth is the length of that edge.
func Ahead(body Rect, dir, bodyWidth, w, h float64) Rect {
	sin, cos := math.Sincos(Radians(dir))
	across := Vec{sin, -cos}
	forward := Vec{cos, sin}

	var r Rect
	r.BotL = body.TopL.Add(across.Mul((bodyWidth - w) / 2))
	r.TopL = r.BotL.Sub(forward.Mul(h))
	r.TopR = r.TopL.Add(across.Mul(w))
	r.BotR = r.BotL.Add(across.Mul(w))
	return r
}

// Behind mirrors Ahead onto the trailing edge of body.
func Behind(body Rect, dir, bodyWidth, w, h float64) Rect {
	sin, cos := math.Sincos(Radians(dir))
	across := Vec{sin, -cos}
	forward := Vec{cos, sin}

	var r Rect
	r.BotL = body.BotR.Sub(across.Mul((bodyWidth - w) / 2))
	r.TopL = r.BotL.Add(forward.Mul(h))
	r.TopR = r.TopL.Sub(across.Mul(w))
	r.BotR = r.BotL.Sub(across.Mul(w))
	return r
}

// Intersects reports whether a and b overlap, using the separating-axis
// test in both rectangles' frames. Shapes that only touch along an edge do
// not intersect. A rectangle with a zero-length edge never intersects.
func Intersects(a, b Rect) bool {
	return overlapsInFrame(a, b) && overlapsInFrame(b, a)
}

// overlapsInFrame projects other's corners onto ref's two edge axes,
// measured from ref.BotL.
func overlapsInFrame(ref, other Rect) bool {
	axes := [2]Vec{ref.BotR.Sub(ref.BotL), ref.TopL.Sub(ref.BotL)}
	for _, axis := range axes {
		mag := axis.Len()
		if mag == 0 || math.IsNaN(mag) {
			return false
		}
		unit := axis.Mul(1 / mag)

		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range other.Points() {
			d := p.Sub(ref.BotL).Dot(unit)
			lo = math.Min(lo, d)
			hi = math.Max(hi, d)
		}
		if hi <= 0 || lo >= mag {
			return false
		}
	}
	return true
}
