// Package logging builds the zerolog loggers used across pimsim.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

type Options struct {
	Level string
	// File, when set, receives an uncolored copy of the console output.
	File string
	// Graylog is a host:port GELF UDP endpoint.
	Graylog string
	// Console is where colored output goes, stderr when nil.
	Console io.Writer
}

// Loggers is the pair handed to sessions: Logger for normal events and
// Sampled for per-tick noise.
type Loggers struct {
	Logger  zerolog.Logger
	Sampled zerolog.Logger

	closers []io.Closer
}

func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "DISABLED", "OFF":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func Setup(opts Options) (*Loggers, error) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	l := &Loggers{}
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339},
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		l.closers = append(l.closers, f)
		writers = append(writers, zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true})
	}

	if opts.Graylog != "" {
		gw, err := gelf.NewWriter(opts.Graylog)
		if err != nil {
			l.Close()
			return nil, err
		}
		l.closers = append(l.closers, gw)
		writers = append(writers, gw)
	}

	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().Timestamp().Logger()
	l.Sampled = Sampled(l.Logger)
	return l, nil
}

// Sampled lets 5 entries through every 10 seconds, then 1 in 100.
func Sampled(log zerolog.Logger) zerolog.Logger {
	return log.With().Bool("sampled", true).Logger().Sample(&zerolog.BurstSampler{
		Burst:       5,
		Period:      10 * time.Second,
		NextSampler: &zerolog.BasicSampler{N: 100},
	})
}

func Nop() *Loggers {
	return &Loggers{Logger: zerolog.Nop(), Sampled: zerolog.Nop()}
}

func (l *Loggers) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.closers = nil
	return first
}
