package script

import (
	"context"
	"errors"
)

// Entry points resolved from a user script.
const (
	TeleopSetup = "teleop_setup"
	TeleopMain  = "teleop_main"
	AutoSetup   = "autonomous_setup"
	AutoMain    = "autonomous_main"
)

var (
	ErrNoFunction  = errors.New("script: no such function")
	ErrNotFunction = errors.New("script: first argument must be a function")
	ErrValue       = errors.New("script: value cannot cross the script boundary")
)

// Error is a failed script call. Backtrace is set when the host can
// produce one.
type Error struct {
	Func      string
	Backtrace string
	Err       error
}

func (e *Error) Error() string {
	if e.Backtrace != "" {
		return e.Backtrace
	}
	return e.Func + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Robot is the device API a script sees. Device-level problems (bad
// parameter, exhausted pool, sleeping on the main timeline) are reported
// by the implementation and return nil; a returned error aborts the
// script.
type Robot interface {
	SetValue(ctx context.Context, device, param string, value any) error
	GetValue(ctx context.Context, device, param string) (any, error)
	PickUp(ctx context.Context) error
	Drop(ctx context.Context) error
	Sleep(ctx context.Context, seconds float64) error
	Run(ctx context.Context, fn Func, args []any) error
	IsRunning(name string) bool
	PrintState(ctx context.Context) (string, error)
}

// Input is a Gamepad or Keyboard as seen by a script.
type Input interface {
	GetValue(ctx context.Context, name string) (any, error)
}

// Bindings are the names a script is executed with.
type Bindings struct {
	Robot    Robot
	Gamepad  Input
	Keyboard Input
	Print    func(msg string)
}

// Host compiles script text.
type Host interface {
	Compile(filename, src string) (Program, error)
}

// Program is compiled script text. Exec may be called any number of times,
// concurrently; every call yields an independent Env.
type Program interface {
	Exec(ctx context.Context, b Bindings) (Env, error)
}

// Env is one executed instance of a Program with its own globals. An Env
// is used by one goroutine at a time.
type Env interface {
	Has(name string) bool
	Call(ctx context.Context, name string, args ...any) error
}

// Func names a top-level function of a Program. It is enough to run the
// function in a fresh Env on another goroutine.
type Func struct {
	Program Program
	Name    string
}
