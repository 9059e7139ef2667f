package script

import (
	"context"
	"errors"
	"fmt"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Starlark runs user scripts written in Starlark, a Python dialect. While
// loops, recursion, top-level statements and global reassignment are
// enabled so typical robot code runs unchanged.
type Starlark struct{}

func NewStarlark() *Starlark { return &Starlark{} }

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

const ctxKey = "pimsim.ctx"

func isPredeclared(name string) bool {
	switch name {
	case "Robot", "Gamepad", "Keyboard", "math":
		return true
	}
	return false
}

func (*Starlark) Compile(filename, src string) (Program, error) {
	_, prog, err := starlark.SourceProgramOptions(fileOptions, filename, src, isPredeclared)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}
	return &starlarkProgram{name: filename, prog: prog}, nil
}

type starlarkProgram struct {
	name string
	prog *starlark.Program
}

// Exec runs the top level of the script. Globals are left unfrozen so
// functions may keep state in module-level lists and dicts.
func (p *starlarkProgram) Exec(ctx context.Context, b Bindings) (Env, error) {
	env := &starlarkEnv{prog: p, b: b}
	thread, stop := env.thread(ctx, p.name)
	defer stop()

	globals, err := p.prog.Init(thread, env.predeclared())
	if err != nil {
		return nil, callError(ctx, p.name, err)
	}
	env.globals = globals
	return env, nil
}

type starlarkEnv struct {
	prog    *starlarkProgram
	b       Bindings
	globals starlark.StringDict
}

func (e *starlarkEnv) Has(name string) bool {
	_, ok := e.globals[name].(starlark.Callable)
	return ok
}

func (e *starlarkEnv) Call(ctx context.Context, name string, args ...any) error {
	fn, ok := e.globals[name].(starlark.Callable)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFunction, name)
	}
	sargs := make(starlark.Tuple, 0, len(args))
	for _, a := range args {
		v, err := toStarlark(a)
		if err != nil {
			return err
		}
		sargs = append(sargs, v)
	}

	thread, stop := e.thread(ctx, name)
	defer stop()
	if _, err := starlark.Call(thread, fn, sargs, nil); err != nil {
		return callError(ctx, name, err)
	}
	return nil
}

// thread returns a thread bound to ctx: canceling ctx interrupts the
// running script at its next step.
func (e *starlarkEnv) thread(ctx context.Context, name string) (*starlark.Thread, func() bool) {
	th := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			if e.b.Print != nil {
				e.b.Print(msg)
			}
		},
	}
	th.SetLocal(ctxKey, ctx)
	stop := context.AfterFunc(ctx, func() { th.Cancel(context.Cause(ctx).Error()) })
	return th, stop
}

func callError(ctx context.Context, name string, err error) error {
	if ctx.Err() != nil {
		return &Error{Func: name, Err: ctx.Err()}
	}
	se := &Error{Func: name, Err: err}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		se.Backtrace = evalErr.Backtrace()
	}
	return se
}

func threadCtx(th *starlark.Thread) context.Context {
	if ctx, ok := th.Local(ctxKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

type builtinFunc func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

func builtin(name string, fn builtinFunc) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(th *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return fn(threadCtx(th), args, kwargs)
	})
}

func (e *starlarkEnv) predeclared() starlark.StringDict {
	return starlark.StringDict{
		"Robot": &starlarkstruct.Module{Name: "Robot", Members: e.robotMembers()},
		"Gamepad": &starlarkstruct.Module{Name: "Gamepad", Members: starlark.StringDict{
			"get_value": e.inputGetter("Gamepad.get_value", e.b.Gamepad),
		}},
		"Keyboard": &starlarkstruct.Module{Name: "Keyboard", Members: starlark.StringDict{
			"get_value": e.inputGetter("Keyboard.get_value", e.b.Keyboard),
		}},
		"math": starlarkmath.Module,
	}
}

func (e *starlarkEnv) robotMembers() starlark.StringDict {
	r := e.b.Robot
	return starlark.StringDict{
		"set_value": builtin("set_value", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var device, param string
			var value starlark.Value
			if err := starlark.UnpackPositionalArgs("set_value", args, kwargs, 3, &device, &param, &value); err != nil {
				return nil, err
			}
			v, err := fromStarlark(value)
			if err != nil {
				return nil, err
			}
			return starlark.None, r.SetValue(ctx, device, param, v)
		}),
		"get_value": builtin("get_value", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var device, param string
			if err := starlark.UnpackPositionalArgs("get_value", args, kwargs, 2, &device, &param); err != nil {
				return nil, err
			}
			v, err := r.GetValue(ctx, device, param)
			if err != nil {
				return nil, err
			}
			return toStarlark(v)
		}),
		"pick_up": builtin("pick_up", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs("pick_up", args, kwargs, 0); err != nil {
				return nil, err
			}
			return starlark.None, r.PickUp(ctx)
		}),
		"drop": builtin("drop", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs("drop", args, kwargs, 0); err != nil {
				return nil, err
			}
			return starlark.None, r.Drop(ctx)
		}),
		"sleep": builtin("sleep", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var v starlark.Value
			if err := starlark.UnpackPositionalArgs("sleep", args, kwargs, 1, &v); err != nil {
				return nil, err
			}
			seconds, ok := starlark.AsFloat(v)
			if !ok {
				return nil, fmt.Errorf("sleep: got %s, want number", v.Type())
			}
			return starlark.None, r.Sleep(ctx, seconds)
		}),
		"run": builtin("run", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if len(kwargs) > 0 {
				return nil, fmt.Errorf("run: unexpected keyword arguments")
			}
			if len(args) == 0 {
				return nil, fmt.Errorf("run: %w", ErrNotFunction)
			}
			name, err := e.topLevel(args[0])
			if err != nil {
				return nil, fmt.Errorf("run: %w", err)
			}
			rest := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				v, err := fromStarlark(a)
				if err != nil {
					return nil, fmt.Errorf("run: %w", err)
				}
				rest = append(rest, v)
			}
			return starlark.None, r.Run(ctx, Func{Program: e.prog, Name: name}, rest)
		}),
		"is_running": builtin("is_running", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var fn starlark.Value
			if err := starlark.UnpackPositionalArgs("is_running", args, kwargs, 1, &fn); err != nil {
				return nil, err
			}
			name, err := e.topLevel(fn)
			if err != nil {
				return nil, fmt.Errorf("is_running: %w", err)
			}
			return starlark.Bool(r.IsRunning(name)), nil
		}),
		"print_state": builtin("print_state", func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs("print_state", args, kwargs, 0); err != nil {
				return nil, err
			}
			s, err := r.PrintState(ctx)
			if err != nil {
				return nil, err
			}
			if e.b.Print != nil {
				e.b.Print(s)
			}
			return starlark.None, nil
		}),
	}
}

// topLevel returns the name of fn if it is a function defined at the top
// level of the script, the only kind another Env can look up.
func (e *starlarkEnv) topLevel(v starlark.Value) (string, error) {
	fn, ok := v.(*starlark.Function)
	if !ok {
		return "", ErrNotFunction
	}
	if g, ok := e.globals[fn.Name()]; !ok || g != starlark.Value(fn) {
		return "", fmt.Errorf("%w: %s is not a top-level function", ErrNoFunction, fn.Name())
	}
	return fn.Name(), nil
}

func (e *starlarkEnv) inputGetter(name string, in Input) *starlark.Builtin {
	return builtin(name, func(ctx context.Context, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var key string
		if err := starlark.UnpackPositionalArgs(name, args, kwargs, 1, &key); err != nil {
			return nil, err
		}
		if in == nil {
			return starlark.None, nil
		}
		v, err := in.GetValue(ctx, key)
		if err != nil {
			return nil, err
		}
		return toStarlark(v)
	})
}
