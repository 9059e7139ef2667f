package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/pimsim/internal/field"
)

func wall(x, y, w, h float64) field.WallSpec {
	return field.WallSpec{BoxSpec: field.BoxSpec{X: x, Y: y, W: w, H: h}}
}

func tape(x1, y1, x2, y2 float64) field.TapeSpec {
	return field.TapeSpec{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Presets are the built-in field layouts on a 144 by 144 field.
var Presets = map[string]field.Layout{
	"empty": {},
	"line": {
		TapeLines: []field.TapeSpec{
			tape(134, 70, 40, 70),
			tape(40, 70, 20, 50),
			tape(20, 50, 20, 10),
		},
		Start: &field.StartSpec{X: 110, Y: 70, Dir: "left"},
	},
	"maze": {
		Walls: []field.WallSpec{
			wall(0, 0, 144, 2),
			wall(0, 142, 144, 2),
			wall(0, 0, 2, 144),
			wall(142, 0, 2, 144),
			wall(40, 0, 3, 100),
			wall(90, 44, 3, 100),
			wall(40, 120, 25, 3),
		},
		Start: &field.StartSpec{X: 20, Y: 20, Dir: "down"},
	},
	"ramp": {
		Ramps: []field.RampSpec{
			{BoxSpec: field.BoxSpec{X: 30, Y: 55, W: 30, H: 30}, HighSide: field.HighLeft},
		},
		TapeLines: []field.TapeSpec{tape(10, 70, 30, 70)},
		Start:     &field.StartSpec{X: 90, Y: 70, Dir: "left"},
	},
	"pickup": {
		Interactables: []field.BoxSpec{
			{X: 50, Y: 66, W: 6, H: 8, Color: "red"},
			{X: 20, Y: 110, W: 6, H: 6, Color: "blue"},
		},
		Walls: []field.WallSpec{wall(100, 20, 4, 40)},
		Start: &field.StartSpec{X: 70, Y: 70, Dir: "left"},
	},
}

func GetPreset(name string) *field.Layout {
	l, ok := Presets[name]
	if !ok {
		return nil
	}
	return &l
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadLayout resolves name as a preset, then as a layout file.
func LoadLayout(name string) (*field.Layout, error) {
	if l := GetPreset(name); l != nil {
		return l, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("layout %q is neither a preset (%v) nor a readable file", name, ListPresets())
	}
	l, err := field.LoadLayout(name)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
