package exec

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/metrics"
)

var ErrBridgeClosed = errors.New("exec: bridge closed")

// DefaultQueueSize bounds the requests waiting for the session.
const DefaultQueueSize = 64

// Request is a device call made by a pool unit. Requests made with Call
// carry a future that the session resolves exactly once. Gen is the run
// generation a write was sent from; zero means it is not tied to a run.
type Request struct {
	Target string
	Method string
	Args   []any
	Gen    uint64

	reply chan reply
}

type reply struct {
	value any
	err   error
}

// Blocking reports whether the caller waits on the result.
func (r *Request) Blocking() bool { return r.reply != nil }

// Resolve completes a blocking request. It is a no-op for fire-and-forget
// requests and for every call after the first.
func (r *Request) Resolve(v any, err error) {
	if r.reply == nil {
		return
	}
	select {
	case r.reply <- reply{value: v, err: err}:
	default:
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("%s.%s%v", r.Target, r.Method, r.Args)
}

// Bridge carries device requests from pool units to the session goroutine.
type Bridge struct {
	reqs chan *Request
	done chan struct{}
	once sync.Once

	waits atomic.Uint64

	ins *metrics.Instruments
	log zerolog.Logger
}

type BridgeOption func(*Bridge)

func WithBridgeMetrics(ins *metrics.Instruments) BridgeOption {
	return func(b *Bridge) { b.ins = ins }
}

// WithBridgeLogger sets the logger for writes that wait on a full queue.
// A sampled logger is a good fit since a spinning unit can wait thousands
// of times.
func WithBridgeLogger(log zerolog.Logger) BridgeOption {
	return func(b *Bridge) { b.log = log }
}

func NewBridge(size int, opts ...BridgeOption) *Bridge {
	if size < 1 {
		size = DefaultQueueSize
	}
	b := &Bridge{
		reqs: make(chan *Request, size),
		done: make(chan struct{}),
		ins:  metrics.Nop(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Send enqueues a fire-and-forget request from run generation gen. When
// the queue is full it waits for room, so writes reach the session in the
// order they were made.
func (b *Bridge) Send(ctx context.Context, gen uint64, target, method string, args ...any) error {
	select {
	case <-b.done:
		return ErrBridgeClosed
	default:
	}

	req := &Request{Target: target, Method: method, Args: args, Gen: gen}
	select {
	case b.reqs <- req:
		b.ins.BridgeCall()
		return nil
	default:
	}

	b.waits.Add(1)
	b.log.Debug().Str("request", req.String()).Msg("bridge queue full, waiting")
	select {
	case b.reqs <- req:
		b.ins.BridgeCall()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrBridgeClosed
	}
}

// Call enqueues a request and waits for the session to resolve it.
func (b *Bridge) Call(ctx context.Context, target, method string, args ...any) (any, error) {
	req := &Request{Target: target, Method: method, Args: args, reply: make(chan reply, 1)}

	select {
	case b.reqs <- req:
		b.ins.BridgeCall()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrBridgeClosed
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.done:
		return nil, ErrBridgeClosed
	}
}

// Requests is drained by the session goroutine.
func (b *Bridge) Requests() <-chan *Request { return b.reqs }

// Close fails every pending and future call. Requests already queued stay
// readable.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Waits is the number of writes that found the queue full.
func (b *Bridge) Waits() uint64 { return b.waits.Load() }
