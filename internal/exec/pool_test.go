package exec

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/pimsim/internal/script"
)

// blockingProgram returns a program with a "block" function that waits for
// release or cancellation and a "count" function that adds its argument
// to n.
func blockingProgram(release <-chan struct{}, n *atomic.Int64) script.Program {
	prog, err := script.Native{
		"block": func(ctx context.Context, c *script.NativeCall) error {
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		"count": func(ctx context.Context, c *script.NativeCall) error {
			n.Add(c.Args[0].(int64))
			return nil
		},
		"explode": func(ctx context.Context, c *script.NativeCall) error {
			panic("boom")
		},
		"fail": func(ctx context.Context, c *script.NativeCall) error {
			return errors.New("bad")
		},
	}.Compile("native", "")
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("Pool", func() {
	var (
		pool    *Pool
		prog    script.Program
		release chan struct{}
		n       atomic.Int64
	)

	job := func(name string, args ...any) Job {
		return Job{Fn: script.Func{Program: prog, Name: name}, Args: args}
	}

	BeforeEach(func() {
		release = make(chan struct{})
		n.Store(0)
		prog = blockingProgram(release, &n)
		pool = NewPool(3)
		DeferCleanup(pool.Close)
	})

	It("runs a function with its arguments", func() {
		Expect(pool.Run(job("count", int64(4)))).To(Succeed())
		Eventually(n.Load).Should(Equal(int64(4)))
		Eventually(pool.Busy).Should(BeZero())
	})

	It("refuses the run after every unit is busy and claims nothing", func() {
		for i := 0; i < 3; i++ {
			Expect(pool.Run(job("block"))).To(Succeed())
		}
		Expect(pool.Busy()).To(Equal(3))
		Expect(pool.IsRunning("block")).To(BeTrue())

		err := pool.Run(job("count", int64(1)))
		Expect(err).To(MatchError(ErrPoolExhausted))
		Expect(err.Error()).To(ContainSubstring("could not run function count, thread limit 3"))
		Expect(pool.IsRunning("count")).To(BeFalse())
		Consistently(n.Load).Should(BeZero())

		close(release)
		Eventually(pool.Busy).Should(BeZero())
		Expect(pool.Run(job("count", int64(1)))).To(Succeed())
		Eventually(n.Load).Should(Equal(int64(1)))
	})

	It("frees the unit after a panic or an error", func() {
		Expect(pool.Run(job("explode"))).To(Succeed())
		Expect(pool.Run(job("fail"))).To(Succeed())
		Eventually(pool.Busy).Should(BeZero())
		Expect(pool.IsRunning("explode")).To(BeFalse())
	})

	It("reports script errors through the job's print sink", func() {
		printed := make(chan string, 1)
		j := job("fail")
		j.Bindings.Print = func(msg string) { printed <- msg }
		Expect(pool.Run(j)).To(Succeed())
		Eventually(printed).Should(Receive(ContainSubstring("bad")))
	})

	It("frees a unit for a missing function", func() {
		Expect(pool.Run(job("nope"))).To(Succeed())
		Eventually(pool.Busy).Should(BeZero())
	})

	It("interrupts running functions on Close and refuses new ones", func() {
		Expect(pool.Run(job("block"))).To(Succeed())
		pool.Close()
		Expect(pool.Run(job("block"))).To(MatchError(ErrPoolClosed))
	})

	It("defaults the size", func() {
		p := NewPool(0)
		defer p.Close()
		Expect(p.Size()).To(Equal(DefaultPoolSize))
	})
})
