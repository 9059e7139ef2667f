// Package session runs one simulated robot: it owns the field, the robot,
// the input devices, the execution pool and the bridge, and drives the tick
// loop from a single goroutine.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/exec"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
	"github.com/san-kum/pimsim/internal/input"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/script"
	"github.com/san-kum/pimsim/internal/sensor"
	"go.opentelemetry.io/otel/metric"
)

type Config struct {
	TickPeriod   time.Duration
	AutoDuration time.Duration
	PoolSize     int
	QueueSize    int
	Deadzone     float64
	Filename     string
}

func DefaultConfig() Config {
	return Config{
		TickPeriod:   50 * time.Millisecond,
		AutoDuration: 30 * time.Second,
		PoolSize:     exec.DefaultPoolSize,
		QueueSize:    exec.DefaultQueueSize,
		Deadzone:     input.DefaultDeadzone,
		Filename:     "student_code.py",
	}
}

// Snapshot is the state of a session as of its last tick or transition.
type Snapshot struct {
	ID        uuid.UUID
	Mode      Mode
	RobotType string
	Pose      robot.Pose
	Corners   geom.Rect
	Sensors   sensor.LineFollower
	Switches  sensor.LimitSwitch
	Holding   bool
	Ticks     int
	Busy      int
}

// Session is safe for concurrent use. Every field below the owner marker is
// touched only by the loop goroutine.
type Session struct {
	id  uuid.UUID
	cfg Config

	host      script.Host
	reporter  report.Reporter
	log       zerolog.Logger
	sampled   zerolog.Logger
	ins       *metrics.Instruments
	observers []metrics.Observer
	reg       metric.Registration

	devices *input.Devices
	pool    *exec.Pool
	bridge  *exec.Bridge

	cmds      chan command
	done      chan struct{}
	closeOnce sync.Once

	// gen is the generation of the active run, 0 when idle. Pool units
	// compare it to drop writes from runs that have ended.
	gen atomic.Uint64

	mu        sync.Mutex
	snap      Snapshot
	cancelRun context.CancelCauseFunc

	// owner
	field   *field.Field
	robot   *robot.Robot
	code    string
	run     *run
	lastGen uint64
}

type command struct {
	fn    func() error
	reply chan error
}

type Option func(*Session)

func WithHost(h script.Host) Option {
	return func(s *Session) { s.host = h }
}

// WithReporter sets where reports go. It is called from the session
// goroutine and from pool units, so it must be safe for concurrent use.
func WithReporter(r report.Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithSampledLogger sets the logger for per-tick noise such as rejected
// moves and dropped writes.
func WithSampledLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.sampled = log }
}

func WithMetrics(ins *metrics.Instruments) Option {
	return func(s *Session) { s.ins = ins }
}

// WithObserver adds an observer told about every tick.
func WithObserver(o metrics.Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

func WithField(f *field.Field) Option {
	return func(s *Session) { s.field = f }
}

// New creates a session and starts its goroutine. Close releases it.
func New(cfg Config, opts ...Option) (*Session, error) {
	def := DefaultConfig()
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = def.TickPeriod
	}
	if cfg.AutoDuration <= 0 {
		cfg.AutoDuration = def.AutoDuration
	}
	if cfg.Filename == "" {
		cfg.Filename = def.Filename
	}

	s := &Session{
		id:       uuid.New(),
		cfg:      cfg,
		host:     script.NewStarlark(),
		reporter: report.Discard,
		log:      zerolog.Nop(),
		ins:      metrics.Nop(),
		cmds:     make(chan command),
		done:     make(chan struct{}),
		field:    field.New(),
	}
	s.sampled = zerolog.Nop()
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id.String()).Logger()

	s.devices = input.NewDevices(cfg.Deadzone)
	s.bridge = exec.NewBridge(cfg.QueueSize, exec.WithBridgeMetrics(s.ins), exec.WithBridgeLogger(s.sampled))
	s.pool = exec.NewPool(cfg.PoolSize, exec.WithPoolMetrics(s.ins), exec.WithPoolLogger(s.log.With().Str("component", "pool").Logger()))

	reg, err := s.ins.ObservePool(s.pool.Busy)
	if err != nil {
		s.pool.Close()
		return nil, err
	}
	s.reg = reg

	s.snap = Snapshot{ID: s.id, Mode: Idle}
	go s.loop()
	return s, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) loop() {
	defer close(s.done)
	for {
		var (
			tick    <-chan time.Time
			runDone <-chan struct{}
		)
		if s.run != nil {
			tick = s.run.ticker.C
			runDone = s.run.ctx.Done()
		}

		select {
		case c := <-s.cmds:
			if c.fn == nil {
				c.reply <- nil
				return
			}
			c.reply <- c.fn()
		case req := <-s.bridge.Requests():
			s.serve(req)
		case now := <-tick:
			s.tick(now)
		case <-runDone:
			s.stopRun()
		}
	}
}

// do runs fn on the session goroutine and returns its error.
func (s *Session) do(ctx context.Context, fn func() error) error {
	c := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- c:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// UploadCode stores the script used by the next Start.
func (s *Session) UploadCode(src string) error {
	return s.do(context.Background(), func() error {
		s.code = src
		s.log.Info().Int("bytes", len(src)).Msg("code uploaded")
		return nil
	})
}

// DefineObjects replaces the field objects. While idle the new objects
// are reported at once; while running the robot lets go of anything it
// holds since that object no longer exists.
func (s *Session) DefineObjects(l field.Layout) error {
	return s.do(context.Background(), func() error {
		if err := s.field.Define(l); err != nil {
			s.reporter.Report(report.Logf("%v", err))
			return err
		}
		if s.robot != nil {
			s.robot.Release()
		}
		if s.run == nil {
			s.reporter.Report(report.ObjectsOf(s.field.Snapshot()))
		}
		s.log.Info().
			Int("tapes", len(s.field.Tapes)).
			Int("obstacles", len(s.field.Obstacles)).
			Int("ramps", len(s.field.Ramps)).
			Msg("objects defined")
		return nil
	})
}

// Start leaves whatever mode the session is in and enters mode. The
// script's setup entry point has run when Start returns. Canceling ctx
// later stops the run.
func (s *Session) Start(ctx context.Context, mode Mode, info robot.StartInfo) error {
	if mode != Teleop && mode != Auto {
		return ErrBadMode
	}
	s.interrupt(errRestarted)
	return s.do(ctx, func() error {
		return s.startRun(ctx, mode, info)
	})
}

// Stop returns to idle. The script call in flight is interrupted; functions
// running on the pool carry on but their writes are ignored.
func (s *Session) Stop() error {
	s.interrupt(errStopped)
	return s.do(context.Background(), func() error {
		if s.run != nil {
			s.stopRun()
		}
		return nil
	})
}

// interrupt cancels the active run's context from outside the session
// goroutine, so a script call that never returns cannot hold it.
func (s *Session) interrupt(cause error) {
	s.mu.Lock()
	cancel := s.cancelRun
	s.mu.Unlock()
	if cancel != nil {
		cancel(cause)
	}
}

// Input applies a keyboard or gamepad event. Events outside teleop are
// ignored.
func (s *Session) Input(ev input.Event) error {
	if s.Snapshot().Mode != Teleop {
		return nil
	}
	return s.devices.Apply(ev)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Busy = s.pool.Busy()
	return snap
}

// Close stops the session and its pool. Functions still running on the
// pool are interrupted.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.interrupt(errStopped)
		s.do(context.Background(), func() error {
			if s.run != nil {
				s.stopRun()
			}
			return nil
		})
		c := command{reply: make(chan error, 1)}
		select {
		case s.cmds <- c:
			<-c.reply
		case <-s.done:
		}
		s.bridge.Close()
		s.pool.Close()
		if s.reg != nil {
			s.reg.Unregister()
		}
		s.log.Info().Msg("session closed")
	})
	return nil
}

func (s *Session) setSnapshot(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()
}
