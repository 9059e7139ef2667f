// Package sim runs a script headless for a fixed time and collects what
// happened.
package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/script"
	"github.com/san-kum/pimsim/internal/session"
)

type Simulator struct {
	host      script.Host
	metrics   []metrics.Metric
	observers []metrics.Observer
	reporters []report.Reporter
	log       zerolog.Logger
	sampled   zerolog.Logger
	ins       *metrics.Instruments
}

func New(host script.Host) *Simulator {
	return &Simulator{
		host:    host,
		log:     zerolog.Nop(),
		sampled: zerolog.Nop(),
		ins:     metrics.Nop(),
	}
}

func (s *Simulator) AddMetric(m metrics.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o metrics.Observer) { s.observers = append(s.observers, o) }

// AddReporter forwards every report of the run to r as well.
func (s *Simulator) AddReporter(r report.Reporter) { s.reporters = append(s.reporters, r) }

func (s *Simulator) SetLogger(log, sampled zerolog.Logger) {
	s.log, s.sampled = log, sampled
}

func (s *Simulator) SetInstruments(ins *metrics.Instruments) { s.ins = ins }

// collector gathers samples and reports. Samples arrive on the session
// goroutine, reports also from pool units.
type collector struct {
	mu       sync.Mutex
	samples  []metrics.Sample
	logs     []string
	timedOut bool
	metrics  []metrics.Metric
	users    []metrics.Observer
	idle     chan struct{}
	idleOnce sync.Once
}

func (c *collector) OnTick(sm metrics.Sample) {
	c.mu.Lock()
	c.samples = append(c.samples, sm)
	for _, m := range c.metrics {
		m.Observe(sm)
	}
	c.mu.Unlock()
	for _, o := range c.users {
		o.OnTick(sm)
	}
}

func (c *collector) Report(m report.Message) {
	switch m.Kind {
	case report.KindLog:
		c.mu.Lock()
		c.logs = append(c.logs, m.Log)
		if m.Log == "autonomous period over" {
			c.timedOut = true
		}
		c.mu.Unlock()
	case report.KindMode:
		if m.Mode == string(session.Idle) {
			c.idleOnce.Do(func() { close(c.idle) })
		}
	}
}

// Run uploads code, starts it in cfg.Mode and lets it run for
// cfg.Duration, or until the session goes idle on its own.
func (s *Simulator) Run(ctx context.Context, code string, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	col := &collector{
		metrics: s.metrics,
		users:   s.observers,
		idle:    make(chan struct{}),
	}
	reporters := append(report.Multi{col}, s.reporters...)

	sess, err := session.New(cfg.Session,
		session.WithHost(s.host),
		session.WithReporter(reporters),
		session.WithObserver(col),
		session.WithLogger(s.log),
		session.WithSampledLogger(s.sampled),
		session.WithMetrics(s.ins),
	)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if cfg.Layout != nil {
		if err := sess.DefineObjects(*cfg.Layout); err != nil {
			return nil, err
		}
	}
	if err := sess.UploadCode(code); err != nil {
		return nil, err
	}

	begin := time.Now()
	result := &Result{Mode: cfg.Mode, Metrics: make(map[string]float64)}
	startErr := sess.Start(ctx, cfg.Mode, cfg.Start)
	if startErr == nil {
		timer := time.NewTimer(cfg.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-col.idle:
			result.Stopped = true
		case <-ctx.Done():
		}
	}
	sess.Stop()
	result.Elapsed = time.Since(begin)

	col.mu.Lock()
	result.Samples = col.samples
	result.Logs = col.logs
	result.TimedOut = col.timedOut
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	col.mu.Unlock()

	if startErr != nil {
		return result, startErr
	}
	return result, ctx.Err()
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Mode != session.Teleop && cfg.Mode != session.Auto {
		return SimError{Mode: cfg.Mode, Message: "mode must be teleop or auto"}
	}
	if cfg.Duration <= 0 {
		return SimError{Mode: cfg.Mode, Message: "duration must be positive"}
	}
	if s.host == nil {
		return errors.New("sim: no script host")
	}
	return nil
}
