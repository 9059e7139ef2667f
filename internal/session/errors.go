package session

import "errors"

var (
	ErrNoCode         = errors.New("session: please upload code first")
	ErrClosed         = errors.New("session: closed")
	ErrBadMode        = errors.New("session: unknown mode")
	ErrUnknownRequest = errors.New("session: unknown device request")

	// causes recorded on a run's context
	errStopped     = errors.New("stopped")
	errAutoTimeout = errors.New("autonomous period over")
	errRestarted   = errors.New("restarted")
)
