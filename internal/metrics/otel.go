package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/san-kum/pimsim"

// Instruments are the OpenTelemetry counters of one session. They record
// to the global meter provider, which is a no-op unless one is installed.
type Instruments struct {
	ticks         metric.Int64Counter
	poolRuns      metric.Int64Counter
	poolExhausted metric.Int64Counter
	bridgeCalls   metric.Int64Counter
	bridgeDropped metric.Int64Counter
	poolBusy      metric.Int64ObservableGauge

	meter metric.Meter
}

var (
	committedAttr = metric.WithAttributes(attribute.Bool("committed", true))
	rejectedAttr  = metric.WithAttributes(attribute.Bool("committed", false))
)

// New creates the instruments from the global meter provider.
func New() (*Instruments, error) {
	return NewWithMeter(otel.Meter(instrumentationName))
}

// Nop returns instruments that record nothing.
func Nop() *Instruments {
	ins, err := NewWithMeter(noop.NewMeterProvider().Meter(instrumentationName))
	if err != nil {
		panic(err)
	}
	return ins
}

func NewWithMeter(m metric.Meter) (*Instruments, error) {
	ins := &Instruments{meter: m}
	var err error

	ins.ticks, err = m.Int64Counter(
		"pimsim.ticks",
		metric.WithDescription("Robot ticks, by whether the move was committed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	ins.poolRuns, err = m.Int64Counter(
		"pimsim.pool.dispatched",
		metric.WithDescription("Functions started on a pool unit"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}

	ins.poolExhausted, err = m.Int64Counter(
		"pimsim.pool.exhausted",
		metric.WithDescription("Run requests refused because every unit was busy"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating exhausted counter: %w", err)
	}

	ins.bridgeCalls, err = m.Int64Counter(
		"pimsim.bridge.calls",
		metric.WithDescription("Device requests accepted from pool units"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bridge calls counter: %w", err)
	}

	ins.bridgeDropped, err = m.Int64Counter(
		"pimsim.bridge.dropped",
		metric.WithDescription("Device writes dropped because their run had ended"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bridge dropped counter: %w", err)
	}

	ins.poolBusy, err = m.Int64ObservableGauge(
		"pimsim.pool.busy",
		metric.WithDescription("Pool units currently running a function"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pool busy gauge: %w", err)
	}

	return ins, nil
}

// ObservePool reports busy() on the pool gauge until the returned
// registration is unregistered.
func (ins *Instruments) ObservePool(busy func() int) (metric.Registration, error) {
	reg, err := ins.meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(ins.poolBusy, int64(busy()))
			return nil
		},
		ins.poolBusy,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pool callback: %w", err)
	}
	return reg, nil
}

func (ins *Instruments) Tick(committed bool) {
	if committed {
		ins.ticks.Add(context.Background(), 1, committedAttr)
		return
	}
	ins.ticks.Add(context.Background(), 1, rejectedAttr)
}

func (ins *Instruments) PoolDispatched() { ins.poolRuns.Add(context.Background(), 1) }
func (ins *Instruments) PoolExhausted()  { ins.poolExhausted.Add(context.Background(), 1) }
func (ins *Instruments) BridgeCall()     { ins.bridgeCalls.Add(context.Background(), 1) }
func (ins *Instruments) BridgeDropped()  { ins.bridgeDropped.Add(context.Background(), 1) }
