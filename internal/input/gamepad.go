package input

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrUnknownInput = errors.New("input: unknown input name")
	ErrUnknownEvent = errors.New("input: unknown event")
)

// Axis names, indexed by the browser gamepad axis number.
var AxisNames = [4]string{
	"joystick_left_x",
	"joystick_left_y",
	"joystick_right_x",
	"joystick_right_y",
}

// Button names, indexed by the standard gamepad button number.
var ButtonNames = [16]string{
	"button_a", "button_b", "button_x", "button_y",
	"l_bumper", "r_bumper", "l_trigger", "r_trigger",
	"button_back", "button_start", "l_stick", "r_stick",
	"dpad_up", "dpad_down", "dpad_left", "dpad_right",
}

const (
	AxisLeftX = iota
	AxisLeftY
	AxisRightX
	AxisRightY
)

// Gamepad is the shared joystick and button snapshot. Writers are input
// events; readers are the scripts. Safe for concurrent use.
type Gamepad struct {
	mu      sync.RWMutex
	axes    [4]float64
	buttons [16]bool
}

func NewGamepad() *Gamepad { return &Gamepad{} }

func (g *Gamepad) SetAxis(i int, v float64) {
	if i < 0 || i >= len(g.axes) {
		return
	}
	g.mu.Lock()
	g.axes[i] = v
	g.mu.Unlock()
}

func (g *Gamepad) SetButton(i int, down bool) {
	if i < 0 || i >= len(g.buttons) {
		return
	}
	g.mu.Lock()
	g.buttons[i] = down
	g.mu.Unlock()
}

func (g *Gamepad) Axis(i int) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if i < 0 || i >= len(g.axes) {
		return 0
	}
	return g.axes[i]
}

// GetValue reads a joystick axis (float64) or a button (bool) by name.
func (g *Gamepad) GetValue(name string) (any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i, n := range AxisNames {
		if n == name {
			return g.axes[i], nil
		}
	}
	for i, n := range ButtonNames {
		if n == name {
			return g.buttons[i], nil
		}
	}
	return nil, fmt.Errorf("%w: gamepad has no %q", ErrUnknownInput, name)
}

func (g *Gamepad) Reset() {
	g.mu.Lock()
	g.axes = [4]float64{}
	g.buttons = [16]bool{}
	g.mu.Unlock()
}
