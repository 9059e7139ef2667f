package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/script"
)

var (
	ErrPoolExhausted = errors.New("exec: pool exhausted")
	ErrPoolClosed    = errors.New("exec: pool closed")
)

const DefaultPoolSize = 3

// Job is one function to run on a pool unit. Bindings are what the
// function's fresh environment is executed with.
type Job struct {
	ID       uuid.UUID
	Fn       script.Func
	Args     []any
	Bindings script.Bindings
}

type slot struct {
	busy  bool
	name  string
	id    uuid.UUID
	since time.Time
}

// Pool is a fixed set of units that run script functions alongside the
// session's tick loop. Run never queues: with every unit busy the request
// is refused.
type Pool struct {
	mu     sync.Mutex
	slots  []slot
	jobs   []chan Job
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ins *metrics.Instruments
	log zerolog.Logger
}

type PoolOption func(*Pool)

func WithPoolMetrics(ins *metrics.Instruments) PoolOption {
	return func(p *Pool) { p.ins = ins }
}

func WithPoolLogger(log zerolog.Logger) PoolOption {
	return func(p *Pool) { p.log = log }
}

// NewPool starts n units. They live until Close.
func NewPool(n int, opts ...PoolOption) *Pool {
	if n < 1 {
		n = DefaultPoolSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		slots:  make([]slot, n),
		jobs:   make([]chan Job, n),
		ctx:    ctx,
		cancel: cancel,
		ins:    metrics.Nop(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.jobs {
		p.jobs[i] = make(chan Job, 1)
		p.wg.Add(1)
		go p.unit(i)
	}
	return p
}

// Run hands job to the first free unit.
func (p *Pool) Run(job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	free := -1
	for i := range p.slots {
		if !p.slots[i].busy {
			free = i
			break
		}
	}
	if free < 0 {
		p.mu.Unlock()
		p.ins.PoolExhausted()
		return fmt.Errorf("%w: could not run function %s, thread limit %d", ErrPoolExhausted, job.Fn.Name, len(p.slots))
	}
	p.slots[free] = slot{busy: true, name: job.Fn.Name, id: job.ID, since: time.Now()}
	p.mu.Unlock()

	p.ins.PoolDispatched()
	p.jobs[free] <- job
	return nil
}

func (p *Pool) unit(i int) {
	defer p.wg.Done()
	log := p.log.With().Int("unit", i).Logger()
	for {
		select {
		case job := <-p.jobs[i]:
			p.exec(log, i, job)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) exec(log zerolog.Logger, i int, job Job) {
	log = log.With().Str("func", job.Fn.Name).Str("job", job.ID.String()).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("function panicked")
		}
		p.mu.Lock()
		since := p.slots[i].since
		p.slots[i] = slot{}
		p.mu.Unlock()
		log.Debug().Dur("took", time.Since(since)).Msg("unit free")
	}()

	log.Debug().Msg("function started")
	env, err := job.Fn.Program.Exec(p.ctx, job.Bindings)
	if err != nil {
		log.Error().Err(err).Msg("executing script")
		return
	}
	if err := env.Call(p.ctx, job.Fn.Name, job.Args...); err != nil {
		if p.ctx.Err() != nil {
			log.Debug().Msg("function interrupted by shutdown")
			return
		}
		log.Error().Err(err).Msg("function failed")
		if job.Bindings.Print != nil {
			job.Bindings.Print(err.Error())
		}
		return
	}
	log.Debug().Msg("function finished")
}

// IsRunning reports whether a unit is running the function called name.
func (p *Pool) IsRunning(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.slots {
		if s.busy && s.name == name {
			return true
		}
	}
	return false
}

func (p *Pool) Busy() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.slots {
		if s.busy {
			n++
		}
	}
	return n
}

func (p *Pool) Size() int { return len(p.slots) }

// Close interrupts running functions and waits for every unit to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
