package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/script"
)

// run is one stretch of teleop or auto between two idles.
type run struct {
	id       uuid.UUID
	gen      uint64
	mode     Mode
	ctx      context.Context
	cancel   context.CancelCauseFunc
	env      script.Env
	main     string
	ticker   *time.Ticker
	started  time.Time
	deadline time.Time
	ticks    int
}

func (s *Session) startRun(ctx context.Context, mode Mode, info robot.StartInfo) error {
	if s.run != nil {
		s.stopRun()
	}
	if s.code == "" {
		s.reporter.Report(report.Logf("please upload code first"))
		return ErrNoCode
	}

	prog, err := s.host.Compile(s.cfg.Filename, s.code)
	if err != nil {
		s.reporter.Report(report.Logf("%v", err))
		return err
	}

	for _, ia := range s.field.Interactables {
		ia.Release()
	}
	s.robot = robot.New(s.field, info,
		robot.WithReporter(s.reporter),
		robot.WithLogger(s.sampled),
	)
	s.devices.Reset()

	s.lastGen++
	r := &run{
		id:      uuid.New(),
		gen:     s.lastGen,
		mode:    mode,
		started: time.Now(),
	}
	var runCtx context.Context
	runCtx, r.cancel = context.WithCancelCause(ctx)
	r.ctx = runCtx
	if mode == Auto {
		r.deadline = r.started.Add(s.cfg.AutoDuration)
		var cancel context.CancelFunc
		r.ctx, cancel = context.WithDeadlineCause(runCtx, r.deadline, errAutoTimeout)
		parent := r.cancel
		r.cancel = func(cause error) {
			parent(cause)
			cancel()
		}
	}

	s.mu.Lock()
	s.cancelRun = r.cancel
	s.mu.Unlock()
	s.gen.Store(r.gen)
	s.run = r
	r.ticker = time.NewTicker(s.cfg.TickPeriod)

	log := s.log.With().Str("run", r.id.String()).Str("mode", string(mode)).Logger()

	r.env, err = prog.Exec(r.ctx, s.mainBindings())
	if err != nil {
		s.reporter.Report(report.Logf("%v", err))
		s.abandon()
		return err
	}

	setup, main := mode.entries()
	for _, name := range []string{setup, main} {
		if !r.env.Has(name) {
			s.reporter.Report(report.Logf("%s is not defined", name))
		}
	}
	if r.env.Has(main) {
		r.main = main
	}

	s.setSnapshot(func(snap *Snapshot) {
		snap.Mode = mode
		snap.Ticks = 0
		s.fillRobot(snap)
	})
	s.reporter.Report(report.ModeOf(string(mode)))
	s.reporter.Report(report.ObjectsOf(s.field.Snapshot()))
	log.Info().Str("type", s.robot.Type().Name).Stringer("pose", s.robot.Pose()).Msg("run started")

	if r.env.Has(setup) {
		if err := r.env.Call(r.ctx, setup); err != nil {
			if r.ctx.Err() != nil {
				return nil
			}
			s.reporter.Report(report.Logf("%v", err))
			s.stopRun()
			return err
		}
	}
	return nil
}

// abandon undoes a run that failed before it was entered. Nothing was
// reported for it, so nothing is reported now.
func (s *Session) abandon() {
	r := s.run
	s.run = nil
	r.ticker.Stop()
	r.cancel(errStopped)
	s.gen.Store(0)
	s.mu.Lock()
	s.cancelRun = nil
	s.mu.Unlock()
}

func (s *Session) stopRun() {
	r := s.run
	if r == nil {
		return
	}
	s.run = nil
	r.ticker.Stop()
	r.cancel(errStopped)
	s.gen.Store(0)

	s.mu.Lock()
	s.cancelRun = nil
	s.snap.Mode = Idle
	s.mu.Unlock()

	reason := context.Cause(r.ctx)
	s.reporter.Report(report.ModeOf(string(Idle)))
	if errors.Is(reason, errAutoTimeout) {
		s.reporter.Report(report.Logf("autonomous period over"))
	}
	s.log.Info().
		Str("run", r.id.String()).
		Str("mode", string(r.mode)).
		Int("ticks", r.ticks).
		Dur("elapsed", time.Since(r.started)).
		AnErr("reason", reason).
		Msg("run stopped")
}

// tick calls the mode's main entry point and then advances the robot. A
// panic is logged and reported and the loop carries on.
func (s *Session) tick(now time.Time) {
	r := s.run
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Int("tick", r.ticks).Msg("tick panicked")
			s.reporter.Report(report.Logf("internal error: %v", p))
		}
	}()

	if r.main != "" {
		if err := r.env.Call(r.ctx, r.main); err != nil {
			if r.ctx.Err() != nil {
				return
			}
			s.reporter.Report(report.Logf("%v", err))
			s.log.Warn().Err(err).Str("func", r.main).Msg("script failed, stopping")
			s.stopRun()
			return
		}
	}

	committed := s.robot.Tick()
	r.ticks++
	s.ins.Tick(committed)

	if len(s.observers) > 0 {
		sample := metrics.SampleOf(s.robot, now.Sub(r.started), committed)
		for _, o := range s.observers {
			o.OnTick(sample)
		}
	}
	s.setSnapshot(func(snap *Snapshot) {
		snap.Ticks = r.ticks
		s.fillRobot(snap)
	})
}

func (s *Session) fillRobot(snap *Snapshot) {
	snap.RobotType = s.robot.Type().Name
	snap.Pose = s.robot.Pose()
	snap.Corners = s.robot.Corners()
	snap.Sensors = s.robot.Sensors()
	snap.Switches = s.robot.Switches()
	snap.Holding = s.robot.Held() != nil
}
