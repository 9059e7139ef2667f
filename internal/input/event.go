package input

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	ModeKeyboard = "keyboard"
	ModeGamepad  = "gamepad"

	DefaultDeadzone = 0.7
)

// Event is one key or gamepad change as sent by the page.
type Event struct {
	KeyMode  string  `json:"keyMode"`
	KeyCode  int     `json:"keyCode,omitempty"`
	IsButton bool    `json:"isButton,omitempty"`
	Button   string  `json:"button,omitempty"`
	Axis     int     `json:"axis,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Up       bool    `json:"up"`
}

// keyAxes lets w/a/s/d drive the left joystick and the arrows the right
// one, so keyboard users can run gamepad teleop code.
var keyAxes = map[int]struct {
	axis  int
	value float64
}{
	87: {AxisLeftY, 1},   // w
	65: {AxisLeftX, -1},  // a
	83: {AxisLeftY, -1},  // s
	68: {AxisLeftX, 1},   // d
	38: {AxisRightY, 1},  // up
	40: {AxisRightY, -1}, // down
	37: {AxisRightX, -1}, // left
	39: {AxisRightX, 1},  // right
}

// Devices is the input snapshot of one session.
type Devices struct {
	Gamepad  *Gamepad
	Keyboard *Keyboard
	Deadzone float64
}

func NewDevices(deadzone float64) *Devices {
	if deadzone <= 0 {
		deadzone = DefaultDeadzone
	}
	return &Devices{Gamepad: NewGamepad(), Keyboard: NewKeyboard(), Deadzone: deadzone}
}

// Apply updates the snapshot from one event.
func (d *Devices) Apply(ev Event) error {
	switch ev.KeyMode {
	case ModeKeyboard:
		d.Keyboard.Set(ev.KeyCode, !ev.Up)
		if ka, ok := keyAxes[ev.KeyCode]; ok {
			v := ka.value
			if ev.Up {
				v = 0
			}
			d.Gamepad.SetAxis(ka.axis, v)
		}
		return nil
	case ModeGamepad:
		if ev.IsButton {
			i, err := buttonIndex(ev.Button)
			if err != nil {
				return err
			}
			d.Gamepad.SetButton(i, !ev.Up)
			return nil
		}
		if ev.Axis < 0 || ev.Axis >= len(AxisNames) {
			return fmt.Errorf("%w: axis %d", ErrUnknownEvent, ev.Axis)
		}
		v := ev.Value
		if ev.Up || math.Abs(v) <= d.Deadzone {
			v = 0
		}
		d.Gamepad.SetAxis(ev.Axis, v)
		return nil
	}
	return fmt.Errorf("%w: key mode %q", ErrUnknownEvent, ev.KeyMode)
}

// buttonIndex accepts "button_N", a bare index, or an API button name.
func buttonIndex(b string) (int, error) {
	s := strings.TrimPrefix(b, "button_")
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(ButtonNames) {
		return i, nil
	}
	for i, n := range ButtonNames {
		if n == b {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: button %q", ErrUnknownEvent, b)
}

func (d *Devices) Reset() {
	d.Gamepad.Reset()
	d.Keyboard.Reset()
}
