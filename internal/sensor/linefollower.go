package sensor

import (
	"math"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
)

const (
	// MaxReading is the signal constant k in min(1, k/d^2).
	MaxReading = 1.2
	// SampleSpacing is the lateral distance between adjacent samples.
	SampleSpacing = 3.0
)

// LineFollower models a three-element reflectance sensor mounted on the
// robot's leading edge.
type LineFollower struct {
	Left, Center, Right float64
}

// Samples returns the three sample points for a body at heading dir, ordered
// right, center, left.
func Samples(body geom.Rect, dir float64) [3]geom.Vec {
	front := body.TopL.Add(body.TopR).Mul(0.5)
	sin, cos := math.Sincos(geom.Radians(dir))
	off := geom.Vec{SampleSpacing * -sin, SampleSpacing * cos}
	return [3]geom.Vec{front.Sub(off), front, front.Add(off)}
}

func (lf *LineFollower) Update(body geom.Rect, dir float64, tapes []*field.TapeLine) {
	var total [3]float64
	for i, p := range Samples(body, dir) {
		sum := 0.0
		for _, t := range tapes {
			sum += signal(p, t)
		}
		total[i] = math.Min(1, sum)
	}
	lf.Right, lf.Center, lf.Left = total[0], total[1], total[2]
}

func signal(p geom.Vec, t *field.TapeLine) float64 {
	return math.Min(1, MaxReading/distSquared(p, t))
}

func distSquared(p geom.Vec, t *field.TapeLine) float64 {
	x, y := p.X(), p.Y()
	sx, sy, ex, ey := t.Start.X(), t.Start.Y(), t.End.X(), t.End.Y()

	switch t.Slope {
	case field.Horizontal:
		dy := y - sy
		if between(x, sx, ex) {
			return dy * dy
		}
		dx := math.Min(math.Abs(sx-x), math.Abs(ex-x))
		return dy*dy + dx*dx
	case field.Vertical:
		dx := x - sx
		if between(y, sy, ey) {
			return dx * dx
		}
		dy := math.Min(math.Abs(sy-y), math.Abs(ey-y))
		return dx*dx + dy*dy
	}

	if !between(x, sx, ex) {
		ds, de := p.Sub(t.Start), p.Sub(t.End)
		return math.Min(ds.Dot(ds), de.Dot(de))
	}
	// foot of the perpendicular from p onto y = Mx + B
	m1 := -1 / t.M
	c1 := y - m1*x
	det := m1 - t.M
	fx := (t.B - c1) / det
	fy := (m1*t.B - t.M*c1) / det
	dx, dy := x-fx, y-fy
	return dx*dx + dy*dy
}

func between(v, a, b float64) bool {
	return (a <= v && v <= b) || (b <= v && v <= a)
}
