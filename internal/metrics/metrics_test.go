package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/robot"
)

func TestDistance(t *testing.T) {
	m := NewDistance()
	for _, p := range []robot.Pose{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}} {
		m.Observe(Sample{Pose: p})
	}
	if math.Abs(m.Value()-11) > 1e-9 {
		t.Errorf("expected 11, got %f", m.Value())
	}

	m.Reset()
	m.Observe(Sample{Pose: robot.Pose{X: 50, Y: 50}})
	if m.Value() != 0 {
		t.Errorf("expected zero distance after reset, got %f", m.Value())
	}
}

func TestRunMetrics(t *testing.T) {
	samples := []Sample{
		{Committed: true, VelL: 1, VelR: -1, Sensors: [3]float64{0, 1, 0}},
		{Committed: false, VelL: 0.5, VelR: -0.5},
		{Committed: true, VelL: 0, VelR: 0, Sensors: [3]float64{0, 0.6, 0}},
		{Committed: true, VelL: 0.5, VelR: 0.5, Sensors: [3]float64{1, 0.2, 0}},
	}

	tests := []struct {
		metric Metric
		want   float64
	}{
		{NewEffort(), 0.5},
		{NewTraction(), 0.75},
		{NewLineTime(), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.metric.Name(), func(t *testing.T) {
			for _, s := range samples {
				tt.metric.Observe(s)
			}
			if math.Abs(tt.metric.Value()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, tt.metric.Value())
			}
			tt.metric.Reset()
			tt.metric.Observe(Sample{Committed: true})
			if v := tt.metric.Value(); v != 0 && v != 1 {
				t.Errorf("unexpected value after reset: %f", v)
			}
		})
	}
}

func TestEmptyMetrics(t *testing.T) {
	for _, m := range Defaults() {
		want := 0.0
		if m.Name() == "traction" {
			want = 1.0
		}
		if m.Value() != want {
			t.Errorf("%s: expected %f with no samples, got %f", m.Name(), want, m.Value())
		}
	}
}

func TestSampleOf(t *testing.T) {
	f := field.New()
	if err := f.Define(field.Layout{TapeLines: []field.TapeSpec{{X1: 63, Y1: 0, X2: 63, Y2: 144}}}); err != nil {
		t.Fatal(err)
	}
	r := robot.New(f, robot.StartInfo{X: 70, Y: 70})
	s := SampleOf(r, 0, true)
	if s.Pose != r.Pose() || !s.Committed {
		t.Errorf("unexpected sample %+v", s)
	}
	if s.Sensors != [3]float64{1, 1, 1} {
		t.Errorf("expected every sensor on the tape, got %v", s.Sensors)
	}
}

func TestInstruments(t *testing.T) {
	ins := Nop()
	reg, err := ins.ObservePool(func() int { return 2 })
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Unregister()

	ins.Tick(true)
	ins.Tick(false)
	ins.PoolDispatched()
	ins.PoolExhausted()
	ins.BridgeCall()
	ins.BridgeDropped()

	if _, err := New(); err != nil {
		t.Fatalf("global meter: %v", err)
	}
}
