package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/script"
	"github.com/san-kum/pimsim/internal/session"
)

var start = robot.StartInfo{X: 70, Y: 70, Type: "medium"}

func forward() script.Native {
	return script.Native{
		script.AutoSetup: func(ctx context.Context, c *script.NativeCall) error {
			c.Robot.SetValue(ctx, robot.DeviceMotor, robot.ParamVelocityB, 1.0)
			return c.Robot.SetValue(ctx, robot.DeviceMotor, robot.ParamVelocityA, -1.0)
		},
		script.AutoMain: func(context.Context, *script.NativeCall) error { return nil },
		script.TeleopMain: func(context.Context, *script.NativeCall) error {
			return nil
		},
	}
}

func fastConfig(mode session.Mode, d time.Duration) Config {
	return Config{
		Mode:     mode,
		Duration: d,
		Start:    start,
		Session:  session.Config{TickPeriod: 5 * time.Millisecond},
	}
}

func TestSimulatorRun(t *testing.T) {
	sim := New(forward())
	for _, m := range metrics.Defaults() {
		sim.AddMetric(m)
	}

	result, err := sim.Run(context.Background(), "native", fastConfig(session.Auto, 60*time.Millisecond))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Samples) < 3 {
		t.Fatalf("expected several ticks, got %d", len(result.Samples))
	}
	final, ok := result.Final()
	if !ok || final.X <= 70 || final.Y != 70 || final.Dir != 0 {
		t.Errorf("expected a straight move along +x, got %v", final)
	}
	if result.Metrics["distance"] <= 0 {
		t.Errorf("expected positive distance, got %v", result.Metrics)
	}
	if result.Metrics["traction"] != 1.0 {
		t.Errorf("expected full traction on an empty field, got %v", result.Metrics["traction"])
	}
	if result.Stopped || result.TimedOut {
		t.Error("run should have ended on its duration")
	}
	if len(result.Trace(1)) != len(result.Samples) {
		t.Error("trace length should match samples")
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(forward())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"idle mode", Config{Mode: session.Idle, Duration: time.Second}},
		{"zero duration", Config{Mode: session.Auto}},
		{"negative duration", Config{Mode: session.Teleop, Duration: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), "native", tt.cfg)
			var se SimError
			if !errors.As(err, &se) {
				t.Errorf("expected SimError, got %v", err)
			}
		})
	}
}

func TestSimulatorAutoTimeout(t *testing.T) {
	cfg := fastConfig(session.Auto, 2*time.Second)
	cfg.Session.AutoDuration = 30 * time.Millisecond

	result, err := New(forward()).Run(context.Background(), "native", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Stopped || !result.TimedOut {
		t.Errorf("expected the autonomous period to end the run, got %+v", result)
	}
	if result.Elapsed >= time.Second {
		t.Errorf("run should end early, took %v", result.Elapsed)
	}
}

func TestSimulatorSetupError(t *testing.T) {
	host := script.Native{
		script.AutoSetup: func(context.Context, *script.NativeCall) error {
			return errors.New("bad setup")
		},
	}
	result, err := New(host).Run(context.Background(), "native", fastConfig(session.Auto, time.Second))
	if err == nil {
		t.Fatal("expected error")
	}
	if result == nil || len(result.Logs) == 0 {
		t.Error("expected the setup error to be logged")
	}
}

func TestSimulatorLayout(t *testing.T) {
	// the trailing edge starts at x=77, one inch from the wall
	cfg := fastConfig(session.Auto, 150*time.Millisecond)
	cfg.Layout = &field.Layout{
		Walls: []field.WallSpec{{BoxSpec: field.BoxSpec{X: 78, Y: 50, W: 4, H: 40}}},
	}

	sim := New(forward())
	traction := metrics.NewTraction()
	sim.AddMetric(traction)

	result, err := sim.Run(context.Background(), "native", cfg)
	if err != nil {
		t.Fatal(err)
	}
	final, _ := result.Final()
	if final.X > 71 {
		t.Errorf("robot drove through the wall: %v", final)
	}
	if result.Metrics["traction"] >= 1.0 {
		t.Error("pushing into a wall should lose traction")
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	result, err := New(forward()).Run(ctx, "native", fastConfig(session.Teleop, 5*time.Second))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a partial result")
	}
}

type countingObserver struct {
	mu    sync.Mutex
	ticks int
}

func (o *countingObserver) OnTick(metrics.Sample) {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func TestSimulatorObserver(t *testing.T) {
	sim := New(forward())
	obs := &countingObserver{}
	sim.AddObserver(obs)

	result, err := sim.Run(context.Background(), "native", fastConfig(session.Auto, 40*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.ticks != len(result.Samples) {
		t.Errorf("observer saw %d ticks, result has %d", obs.ticks, len(result.Samples))
	}
}

func TestEnsemble(t *testing.T) {
	starts := []robot.StartInfo{
		{X: 40, Y: 40, Type: "medium"},
		{X: 100, Y: 100, Type: "medium"},
	}
	ens := NewEnsemble(New(forward()), starts, metrics.Defaults)

	results, err := ens.Run(context.Background(), "native", fastConfig(session.Auto, 40*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		final, ok := r.Final()
		if !ok || final.Y != starts[i].Y || final.X <= starts[i].X {
			t.Errorf("run %d: unexpected final pose %v", i, final)
		}
		if _, ok := r.Metrics["distance"]; !ok {
			t.Errorf("run %d: missing distance", i)
		}
	}
}
