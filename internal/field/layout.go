package field

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout is the geometry-only description of a field as supplied by the
// page or a layout file.
type Layout struct {
	Walls         []WallSpec `yaml:"walls,omitempty" json:"wallsData,omitempty"`
	Interactables []BoxSpec  `yaml:"interactables,omitempty" json:"interactableData,omitempty"`
	Ramps         []RampSpec `yaml:"ramps,omitempty" json:"rampsData,omitempty"`
	TapeLines     []TapeSpec `yaml:"tape_lines,omitempty" json:"tapeLinesData,omitempty"`
	Start         *StartSpec `yaml:"start,omitempty" json:"startPosition,omitempty"`
}

type BoxSpec struct {
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	W     float64 `yaml:"w" json:"w"`
	H     float64 `yaml:"h" json:"h"`
	Color string  `yaml:"color,omitempty" json:"color,omitempty"`
}

type WallSpec struct {
	BoxSpec `yaml:",inline"`
	Rotate  float64 `yaml:"rotate,omitempty" json:"rotate,omitempty"`
}

type RampSpec struct {
	BoxSpec  `yaml:",inline"`
	HighSide HighSide `yaml:"high_side,omitempty" json:"highSide,omitempty"`
	Incline  *float64 `yaml:"incline,omitempty" json:"incline,omitempty"`
}

type TapeSpec struct {
	X1    float64 `yaml:"x1" json:"x1"`
	Y1    float64 `yaml:"y1" json:"y1"`
	X2    float64 `yaml:"x2" json:"x2"`
	Y2    float64 `yaml:"y2" json:"y2"`
	Color string  `yaml:"color,omitempty" json:"color,omitempty"`
}

// StartSpec is the robot's starting position. Dir is one of left, up,
// right or down.
type StartSpec struct {
	X   float64 `yaml:"x" json:"x"`
	Y   float64 `yaml:"y" json:"y"`
	Dir string  `yaml:"dir,omitempty" json:"dir,omitempty"`
}

var ErrInvalidLayout = errors.New("field: invalid layout")

func (b BoxSpec) validate(what string, i int) error {
	if !finite(b.X, b.Y, b.W, b.H) {
		return fmt.Errorf("%s %d: non-finite geometry", what, i)
	}
	if b.W <= 0 || b.H <= 0 {
		return fmt.Errorf("%s %d: size must be positive, got %gx%g", what, i, b.W, b.H)
	}
	return nil
}

// Validate checks every entry and returns all problems joined.
func (l Layout) Validate() error {
	var errs []error
	for i, w := range l.Walls {
		if err := w.validate("wall", i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, b := range l.Interactables {
		if err := b.validate("interactable", i); err != nil {
			errs = append(errs, err)
		}
	}
	for i, r := range l.Ramps {
		if err := r.validate("ramp", i); err != nil {
			errs = append(errs, err)
		}
		if r.HighSide != "" && !r.HighSide.Valid() {
			errs = append(errs, fmt.Errorf("ramp %d: unknown high side %q", i, r.HighSide))
		}
		if r.Incline != nil && *r.Incline < 0 {
			errs = append(errs, fmt.Errorf("ramp %d: incline must not be negative", i))
		}
	}
	for i, t := range l.TapeLines {
		if !finite(t.X1, t.Y1, t.X2, t.Y2) {
			errs = append(errs, fmt.Errorf("tape line %d: non-finite geometry", i))
		} else if t.X1 == t.X2 && t.Y1 == t.Y2 {
			errs = append(errs, fmt.Errorf("tape line %d: zero length", i))
		}
	}
	if l.Start != nil {
		if _, ok := StartDirection(l.Start.Dir); !ok {
			errs = append(errs, fmt.Errorf("start: %q is not a valid starting direction", l.Start.Dir))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidLayout, errors.Join(errs...))
}

// StartDirection maps a named start direction to a heading in degrees. An
// empty name means left.
func StartDirection(name string) (float64, bool) {
	switch name {
	case "", "left":
		return 0, true
	case "up":
		return 90, true
	case "right":
		return 180, true
	case "down":
		return 270, true
	}
	return 0, false
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LoadLayout reads and validates a yaml layout file.
func LoadLayout(path string) (Layout, error) {
	var l Layout
	data, err := os.ReadFile(path)
	if err != nil {
		return l, err
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("parse layout %s: %w", path, err)
	}
	return l, l.Validate()
}

func SaveLayout(path string, l Layout) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
