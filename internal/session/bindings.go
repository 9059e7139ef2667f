package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/pimsim/internal/exec"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/script"
)

const (
	targetRobot    = "robot"
	targetGamepad  = "gamepad"
	targetKeyboard = "keyboard"

	methodSetValue   = "set_value"
	methodGetValue   = "get_value"
	methodPickUp     = "pick_up"
	methodDrop       = "drop"
	methodPrintState = "print_state"
)

// diag reports a problem caused by the script. It never stops anything.
func (s *Session) diag(err error) {
	s.reporter.Report(report.Logf("%v", err))
	s.sampled.Debug().Err(err).Msg("script diagnostic")
}

func (s *Session) print(msg string) {
	s.reporter.Report(report.Logf("%s", msg))
}

// mainBindings are used by the entry points, which run on the session
// goroutine and so reach the robot directly.
func (s *Session) mainBindings() script.Bindings {
	return script.Bindings{
		Robot:    mainRobot{s},
		Gamepad:  mainInput{s, s.devices.Gamepad},
		Keyboard: mainInput{s, s.devices.Keyboard},
		Print:    s.print,
	}
}

type mainRobot struct{ s *Session }

func (m mainRobot) SetValue(_ context.Context, device, param string, value any) error {
	s := m.s
	if s.run == nil {
		return nil
	}
	if err := s.robot.SetValue(device, param, value); err != nil {
		s.diag(err)
	}
	return nil
}

func (m mainRobot) GetValue(_ context.Context, device, param string) (any, error) {
	s := m.s
	if s.robot == nil {
		return nil, nil
	}
	v, err := s.robot.GetValue(device, param)
	if err != nil {
		s.diag(err)
		return nil, nil
	}
	return v, nil
}

func (m mainRobot) PickUp(context.Context) error {
	if m.s.run != nil {
		m.s.robot.PickUp()
	}
	return nil
}

func (m mainRobot) Drop(context.Context) error {
	if m.s.run != nil {
		m.s.robot.Drop()
	}
	return nil
}

func (m mainRobot) Sleep(context.Context, float64) error {
	m.s.diag(errors.New("main thread cannot sleep"))
	return nil
}

func (m mainRobot) Run(_ context.Context, fn script.Func, args []any) error {
	s := m.s
	if s.run == nil {
		return nil
	}
	s.dispatch(s.run.gen, s.run.deadline, fn, args)
	return nil
}

func (m mainRobot) IsRunning(name string) bool { return m.s.pool.IsRunning(name) }

func (m mainRobot) PrintState(context.Context) (string, error) {
	if m.s.robot == nil {
		return "", nil
	}
	return m.s.robot.PrintState(), nil
}

type device interface {
	GetValue(name string) (any, error)
}

type mainInput struct {
	s   *Session
	dev device
}

func (m mainInput) GetValue(_ context.Context, name string) (any, error) {
	v, err := m.dev.GetValue(name)
	if err != nil {
		m.s.diag(err)
		return nil, nil
	}
	return v, nil
}

// dispatch starts fn on the pool with bindings tied to run generation gen.
// A full pool is a diagnostic.
func (s *Session) dispatch(gen uint64, deadline time.Time, fn script.Func, args []any) {
	job := exec.Job{
		ID:       uuid.New(),
		Fn:       fn,
		Args:     args,
		Bindings: s.unitBindings(gen, deadline),
	}
	if err := s.pool.Run(job); err != nil {
		s.diag(err)
	}
}

// unitBindings are used by functions on the pool. Device calls cross the
// bridge to the session goroutine.
func (s *Session) unitBindings(gen uint64, deadline time.Time) script.Bindings {
	return script.Bindings{
		Robot:    &unitRobot{s: s, gen: gen, deadline: deadline},
		Gamepad:  unitInput{s.bridge, targetGamepad},
		Keyboard: unitInput{s.bridge, targetKeyboard},
		Print:    s.print,
	}
}

type unitRobot struct {
	s        *Session
	gen      uint64
	deadline time.Time
}

// active reports whether the run that started this unit is still going.
func (u *unitRobot) active() bool { return u.s.gen.Load() == u.gen }

// send forwards a write, waiting for room on the bridge if it has to.
// Writes from an ended run are dropped.
func (u *unitRobot) send(ctx context.Context, method string, args ...any) error {
	if !u.active() {
		return nil
	}
	return u.s.bridge.Send(ctx, u.gen, targetRobot, method, args...)
}

func (u *unitRobot) SetValue(ctx context.Context, device, param string, value any) error {
	return u.send(ctx, methodSetValue, device, param, value)
}

func (u *unitRobot) GetValue(ctx context.Context, device, param string) (any, error) {
	return u.s.bridge.Call(ctx, targetRobot, methodGetValue, device, param)
}

func (u *unitRobot) PickUp(ctx context.Context) error { return u.send(ctx, methodPickUp) }
func (u *unitRobot) Drop(ctx context.Context) error   { return u.send(ctx, methodDrop) }

// maxSleep is the longest sleep a time.Duration can hold, in seconds.
const maxSleep = math.MaxInt64 / float64(time.Second)

// Sleep waits for seconds, but never past the end of the autonomous
// period that started the unit.
func (u *unitRobot) Sleep(ctx context.Context, seconds float64) error {
	if !(seconds > 0) {
		return nil
	}
	var wake, end <-chan time.Time
	if seconds < maxSleep {
		t := time.NewTimer(time.Duration(seconds * float64(time.Second)))
		defer t.Stop()
		wake = t.C
	}
	if !u.deadline.IsZero() {
		t := time.NewTimer(time.Until(u.deadline))
		defer t.Stop()
		end = t.C
	}
	select {
	case <-wake:
	case <-end:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (u *unitRobot) Run(_ context.Context, fn script.Func, args []any) error {
	if u.active() {
		u.s.dispatch(u.gen, u.deadline, fn, args)
	}
	return nil
}

func (u *unitRobot) IsRunning(name string) bool { return u.s.pool.IsRunning(name) }

func (u *unitRobot) PrintState(ctx context.Context) (string, error) {
	v, err := u.s.bridge.Call(ctx, targetRobot, methodPrintState)
	if err != nil {
		return "", err
	}
	st, _ := v.(string)
	return st, nil
}

type unitInput struct {
	bridge *exec.Bridge
	target string
}

func (u unitInput) GetValue(ctx context.Context, name string) (any, error) {
	return u.bridge.Call(ctx, u.target, methodGetValue, name)
}

// serve answers one bridge request on the session goroutine, with the same
// semantics the entry points get.
func (s *Session) serve(req *exec.Request) {
	// a write queued before its run ended
	if req.Gen != 0 && req.Gen != s.gen.Load() {
		s.ins.BridgeDropped()
		return
	}
	ctx := context.Background()
	m := mainRobot{s}

	var (
		v   any
		err error
	)
	switch req.Target + "." + req.Method {
	case targetRobot + "." + methodSetValue:
		err = m.SetValue(ctx, argString(req, 0), argString(req, 1), arg(req, 2))
	case targetRobot + "." + methodPickUp:
		err = m.PickUp(ctx)
	case targetRobot + "." + methodDrop:
		err = m.Drop(ctx)
	case targetRobot + "." + methodGetValue:
		v, err = m.GetValue(ctx, argString(req, 0), argString(req, 1))
	case targetRobot + "." + methodPrintState:
		v, err = m.PrintState(ctx)
	case targetGamepad + "." + methodGetValue:
		v, err = mainInput{s, s.devices.Gamepad}.GetValue(ctx, argString(req, 0))
	case targetKeyboard + "." + methodGetValue:
		v, err = mainInput{s, s.devices.Keyboard}.GetValue(ctx, argString(req, 0))
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownRequest, req)
		s.log.Error().Err(err).Msg("bad bridge request")
	}
	req.Resolve(v, err)
}

func arg(req *exec.Request, i int) any {
	if i < len(req.Args) {
		return req.Args[i]
	}
	return nil
}

func argString(req *exec.Request, i int) string {
	s, _ := arg(req, i).(string)
	return s
}
