package session

import (
	"fmt"

	"github.com/san-kum/pimsim/internal/script"
)

// Mode is what the session is doing.
type Mode string

const (
	Idle   Mode = "idle"
	Teleop Mode = "teleop"
	Auto   Mode = "auto"
)

// ParseMode accepts the names the page and the CLI use. Autonomous is an
// alias for auto.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "teleop":
		return Teleop, nil
	case "auto", "autonomous":
		return Auto, nil
	case "idle":
		return Idle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadMode, s)
}

// entries returns the setup and main entry point names of m.
func (m Mode) entries() (setup, main string) {
	if m == Auto {
		return script.AutoSetup, script.AutoMain
	}
	return script.TeleopSetup, script.TeleopMain
}
