package report

import "sync/atomic"

// Chan buffers reports for a single consumer. When the buffer is full the
// message is dropped and counted instead of blocking the reporter.
type Chan struct {
	c       chan Message
	dropped atomic.Uint64
}

func NewChan(size int) *Chan {
	if size < 1 {
		size = 1
	}
	return &Chan{c: make(chan Message, size)}
}

func (c *Chan) Report(m Message) {
	select {
	case c.c <- m:
	default:
		c.dropped.Add(1)
	}
}

func (c *Chan) C() <-chan Message { return c.c }

func (c *Chan) Dropped() uint64 { return c.dropped.Load() }
