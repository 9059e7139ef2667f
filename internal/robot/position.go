package robot

import (
	"fmt"
	"math"
)

const (
	DefaultStartX = 70.0
	DefaultStartY = 70.0

	// wallMargin keeps a fresh robot off the field edge.
	wallMargin = 3.0
)

// Pose is the robot center in field inches and its heading in degrees.
type Pose struct {
	X, Y float64
	Dir  float64
}

func (p Pose) String() string {
	return fmt.Sprintf("x = %.2f, y = %.2f, theta = %.2f", p.X, p.Y, p.Dir)
}

// StartInfo describes the robot handed to a new run. NaN coordinates fall
// back to the field center defaults.
type StartInfo struct {
	X, Y float64
	Dir  float64
	Type string
}

// startPose validates a start position so the whole body sits inside the
// field. The bound along each axis depends on which body dimension lies
// along it at a right-angle heading.
func startPose(info StartInfo, t Type, maxX, maxY float64) Pose {
	dir := normDeg(info.Dir)
	p := Pose{X: info.X, Y: info.Y, Dir: dir}

	if math.IsNaN(p.X) {
		p.X = DefaultStartX
	} else {
		half := t.Width / 2
		if dir == 0 || dir == 180 {
			half = t.Height / 2
		}
		p.X = clamp(p.X, half+wallMargin, maxX-half-wallMargin)
	}

	if math.IsNaN(p.Y) {
		p.Y = DefaultStartY
	} else {
		half := t.Width / 2
		if dir == 90 || dir == 270 {
			half = t.Height / 2
		}
		p.Y = clamp(p.Y, half+wallMargin, maxY-half-wallMargin)
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// normDeg maps an angle into [0, 360).
func normDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}
