package report

import "github.com/rs/zerolog"

// Logger writes reports to a zerolog logger. Script diagnostics and mode
// changes log at info; per-tick state logs at trace.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("component", "report").Logger()}
}

func (l *Logger) Report(m Message) {
	switch m.Kind {
	case KindLog:
		l.log.Info().Str("kind", string(m.Kind)).Msg(m.Log)
	case KindMode:
		l.log.Info().Str("mode", m.Mode).Msg("mode changed")
	case KindPose:
		l.log.Trace().
			Float64("x", m.Robot.X).
			Float64("y", m.Robot.Y).
			Float64("dir", m.Robot.Dir).
			Msg("pose")
	case KindSensors:
		l.log.Trace().
			Float64("left", m.Sensors.Left).
			Float64("center", m.Sensors.Center).
			Float64("right", m.Sensors.Right).
			Msg("line follower")
	case KindSwitches:
		l.log.Trace().Bool("front", m.Switches.Front).Bool("back", m.Switches.Back).Msg("limit switch")
	case KindObjects:
		l.log.Trace().
			Int("obstacles", len(m.Objects.Obstacles)).
			Int("tape_lines", len(m.Objects.TapeLines)).
			Int("ramps", len(m.Objects.Ramps)).
			Msg("objects")
	}
}
