package exec

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bridge", func() {
	var b *Bridge

	BeforeEach(func() {
		b = NewBridge(2)
		DeferCleanup(b.Close)
	})

	It("delivers fire-and-forget requests without waiting", func() {
		Expect(b.Send(context.Background(), 1, "robot", "set_value", "koala_bear", "velocity_a", 0.5)).To(Succeed())

		var req *Request
		Eventually(b.Requests()).Should(Receive(&req))
		Expect(req.Target).To(Equal("robot"))
		Expect(req.Method).To(Equal("set_value"))
		Expect(req.Args).To(Equal([]any{"koala_bear", "velocity_a", 0.5}))
		Expect(req.Gen).To(Equal(uint64(1)))
		Expect(req.Blocking()).To(BeFalse())
		req.Resolve(nil, nil)
	})

	It("keeps every write in order when the queue fills up", func() {
		const n = 20
		sent := make(chan error, 1)
		go func() {
			for i := 0; i < n; i++ {
				if err := b.Send(context.Background(), 1, "robot", "set_value", "koala_bear", "velocity_b", float64(i)); err != nil {
					sent <- err
					return
				}
			}
			sent <- nil
		}()

		Eventually(b.Waits).Should(BeNumerically(">", 0))
		Consistently(sent, 50*time.Millisecond).ShouldNot(Receive())

		var got []any
		for len(got) < n {
			var req *Request
			Eventually(b.Requests()).Should(Receive(&req))
			got = append(got, req.Args[2])
		}
		Eventually(sent).Should(Receive(BeNil()))

		for i, v := range got {
			Expect(v).To(Equal(float64(i)))
		}
		Expect(got[len(got)-1]).To(Equal(float64(n - 1)))
	})

	It("stops waiting for room when the context ends", func() {
		ctx := context.Background()
		Expect(b.Send(ctx, 1, "robot", "drop")).To(Succeed())
		Expect(b.Send(ctx, 1, "robot", "drop")).To(Succeed())

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		Expect(b.Send(short, 1, "robot", "drop")).To(MatchError(context.DeadlineExceeded))
	})

	It("releases a waiting write once closed", func() {
		ctx := context.Background()
		Expect(b.Send(ctx, 1, "robot", "drop")).To(Succeed())
		Expect(b.Send(ctx, 1, "robot", "drop")).To(Succeed())

		errs := make(chan error, 1)
		go func() { errs <- b.Send(ctx, 1, "robot", "drop") }()
		Eventually(b.Waits).Should(BeNumerically("==", 1))

		b.Close()
		Eventually(errs).Should(Receive(MatchError(ErrBridgeClosed)))
	})

	It("blocks a call until the request is resolved", func() {
		type result struct {
			v   any
			err error
		}
		done := make(chan result, 1)
		go func() {
			v, err := b.Call(context.Background(), "robot", "get_value", "limit_switch", "switch0")
			done <- result{v, err}
		}()

		var req *Request
		Eventually(b.Requests()).Should(Receive(&req))
		Expect(req.Blocking()).To(BeTrue())
		Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

		req.Resolve(true, nil)
		req.Resolve(false, errors.New("ignored"))
		var r result
		Eventually(done).Should(Receive(&r))
		Expect(r.err).NotTo(HaveOccurred())
		Expect(r.v).To(Equal(true))
	})

	It("passes resolution errors to the caller", func() {
		errBad := errors.New("bad param")
		go func() {
			defer GinkgoRecover()
			req := <-b.Requests()
			req.Resolve(nil, errBad)
		}()
		_, err := b.Call(context.Background(), "robot", "get_value", "x", "y")
		Expect(err).To(MatchError(errBad))
	})

	It("gives up when the context ends", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := b.Call(ctx, "gamepad", "get_value", "button_a")
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})

	It("fails pending and new requests once closed", func() {
		errs := make(chan error, 1)
		go func() {
			_, err := b.Call(context.Background(), "keyboard", "get_value", "w")
			errs <- err
		}()
		Eventually(b.Requests()).Should(Receive())

		b.Close()
		Eventually(errs).Should(Receive(MatchError(ErrBridgeClosed)))
		Expect(b.Send(context.Background(), 1, "robot", "drop")).To(MatchError(ErrBridgeClosed))
		_, err := b.Call(context.Background(), "robot", "get_value", "x", "y")
		Expect(err).To(MatchError(ErrBridgeClosed))
	})
})
