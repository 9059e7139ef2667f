package sim

import (
	"context"
	"sync"

	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
)

// Ensemble runs the same code from several start positions at once, each
// in its own session.
type Ensemble struct {
	base   *Simulator
	starts []robot.StartInfo
	// newMetrics gives every run its own metric set.
	newMetrics func() []metrics.Metric
}

func NewEnsemble(s *Simulator, starts []robot.StartInfo, newMetrics func() []metrics.Metric) *Ensemble {
	return &Ensemble{base: s, starts: starts, newMetrics: newMetrics}
}

func (e *Ensemble) Run(ctx context.Context, code string, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(e.starts))
	errs := make([]error, len(e.starts))

	var wg sync.WaitGroup
	for i, start := range e.starts {
		start := start
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Start = start

			sim := New(e.base.host)
			sim.SetLogger(e.base.log, e.base.sampled)
			sim.SetInstruments(e.base.ins)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, code, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
