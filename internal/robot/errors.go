package robot

import (
	"errors"
	"fmt"
)

// Device API errors. None of them are fatal; callers report them as
// diagnostics and the robot state is left unchanged.
var (
	ErrUnknownDevice = errors.New("robot: cannot find device")
	ErrUnknownParam  = errors.New("robot: param invalid or not supported")
	ErrUnsupported   = errors.New("robot: no longer supported, see robot api")

	// ErrOutOfRange indicates a duty outside [-1, 1].
	ErrOutOfRange = errors.New("robot: speed cannot be greater than 1.0 or less than -1.0")
	ErrValueType  = errors.New("robot: velocity must be a number")
	ErrInvertType = errors.New("robot: invert params take a boolean value")
)

// DeviceError wraps a device API error with the call that caused it.
type DeviceError struct {
	Op     string
	Device string
	Param  string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("%s(%q): %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s(%q, %q): %v", e.Op, e.Device, e.Param, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
