package script

import (
	"context"
	"fmt"
)

// NativeCall is what a NativeFunc receives: the bindings of its Env, the
// arguments it was called with and the Program to build Funcs from.
type NativeCall struct {
	Bindings
	Args    []any
	Program Program
}

// Func names another function of the same Program, for Robot.Run.
func (c *NativeCall) Func(name string) Func {
	return Func{Program: c.Program, Name: name}
}

type NativeFunc func(ctx context.Context, c *NativeCall) error

// Native is a Host whose functions are written in Go. The source text
// passed to Compile is ignored. It backs tests and embedded demos.
type Native map[string]NativeFunc

func (n Native) Compile(filename, _ string) (Program, error) {
	return &nativeProgram{name: filename, funcs: n}, nil
}

type nativeProgram struct {
	name  string
	funcs Native
}

func (p *nativeProgram) Exec(ctx context.Context, b Bindings) (Env, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Func: p.name, Err: err}
	}
	return &nativeEnv{prog: p, b: b}, nil
}

type nativeEnv struct {
	prog *nativeProgram
	b    Bindings
}

func (e *nativeEnv) Has(name string) bool {
	_, ok := e.prog.funcs[name]
	return ok
}

func (e *nativeEnv) Call(ctx context.Context, name string, args ...any) error {
	fn, ok := e.prog.funcs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoFunction, name)
	}
	if err := fn(ctx, &NativeCall{Bindings: e.b, Args: args, Program: e.prog}); err != nil {
		return &Error{Func: name, Err: err}
	}
	return nil
}
