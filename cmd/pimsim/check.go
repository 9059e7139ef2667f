package main

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/pimsim/internal/script"
	"github.com/spf13/cobra"
)

const checkTimeout = 2 * time.Second

// dryRobot accepts every device call made while the top level of a script
// runs and prints it.
type dryRobot struct{}

func (dryRobot) SetValue(_ context.Context, device, param string, value any) error {
	fmt.Printf("  set_value(%s, %s, %v)\n", device, param, value)
	return nil
}

func (dryRobot) GetValue(_ context.Context, device, param string) (any, error) {
	fmt.Printf("  get_value(%s, %s)\n", device, param)
	return nil, nil
}

func (dryRobot) PickUp(context.Context) error {
	fmt.Println("  pick_up()")
	return nil
}

func (dryRobot) Drop(context.Context) error {
	fmt.Println("  drop()")
	return nil
}

func (dryRobot) Sleep(_ context.Context, seconds float64) error {
	fmt.Printf("  sleep(%v)\n", seconds)
	return nil
}

func (dryRobot) Run(_ context.Context, fn script.Func, args []any) error {
	fmt.Printf("  run(%s, %v)\n", fn.Name, args)
	return nil
}

func (dryRobot) IsRunning(string) bool { return false }

func (dryRobot) PrintState(context.Context) (string, error) { return "", nil }

func checkScript(cmd *cobra.Command, args []string) error {
	code, err := readScript(args[0])
	if err != nil {
		return err
	}

	prog, err := script.NewStarlark().Compile(args[0], code)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	fmt.Printf("%s: compiled\n", args[0])
	env, err := prog.Exec(ctx, script.Bindings{
		Robot: dryRobot{},
		Print: func(msg string) { fmt.Printf("  print: %s\n", msg) },
	})
	if err != nil {
		return err
	}

	missing := 0
	fmt.Println("entry points:")
	for _, name := range []string{script.TeleopSetup, script.TeleopMain, script.AutoSetup, script.AutoMain} {
		if env.Has(name) {
			fmt.Printf("  %-18s ok\n", name)
			continue
		}
		fmt.Printf("  %-18s missing\n", name)
		missing++
	}
	if missing == 4 {
		return fmt.Errorf("%s defines no entry points", args[0])
	}
	return nil
}
