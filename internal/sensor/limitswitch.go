package sensor

import (
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
)

const (
	SwitchWidth = 5.0
	// Leeway is how far beyond the body edge a switch registers contact.
	Leeway = 1.0
)

// LimitSwitch models one switch on the leading edge (Front, "switch0") and
// one on the trailing edge (Back, "switch1").
type LimitSwitch struct {
	Front, Back bool
}

// Update probes a SwitchWidth x Leeway region on each edge of the body.
// The carried object, if any, never triggers a switch.
func (ls *LimitSwitch) Update(body geom.Rect, dir, bodyWidth float64, obstacles []field.Object, carried field.Object) {
	front := geom.Ahead(body, dir, bodyWidth, SwitchWidth, Leeway)
	back := geom.Behind(body, dir, bodyWidth, SwitchWidth, Leeway)
	ls.Front = touches(front, obstacles, carried)
	ls.Back = touches(back, obstacles, carried)
}

func touches(region geom.Rect, obstacles []field.Object, skip field.Object) bool {
	for _, o := range obstacles {
		if skip != nil && o == skip {
			continue
		}
		if geom.Intersects(o.Corners(), region) {
			return true
		}
	}
	return false
}
