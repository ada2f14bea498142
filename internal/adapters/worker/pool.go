package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/worklog/pkg/logger"
)

// PanicError reports a task that panicked. The pool recovers it so one bad
// task cannot take the process down from a worker goroutine.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Pool fans tasks out to at most Concurrency goroutines. A pool with
// concurrency 1 runs tasks inline, one after another.
type Pool struct {
	concurrency int
	name        string
	logger      logger.Logger
}

// NewPool creates a sequential pool unless WithConcurrency says otherwise.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		concurrency: 1,
		name:        "worker-pool",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named(p.name)
	}
	return p
}

// Concurrency returns the configured task limit.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Run calls task for every index in [0, n) and returns when all have finished.
// Tasks own their error handling; Run does not stop early on failures. A
// panicking task is recovered and reported as a *PanicError in the joined
// result.
func (p *Pool) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) error {
	if n <= 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		p.logger.Debug(ctx, "pool run finished",
			logger.Int("tasks", n),
			logger.Int("concurrency", p.concurrency),
			logger.Duration("elapsed", time.Since(start)),
		)
	}()

	panics := make([]error, n)
	safe := func(i int) {
		defer func() {
			if v := recover(); v != nil {
				panics[i] = &PanicError{Index: i, Value: v}
				p.logger.Error(ctx, "task panicked", logger.Int("index", i), logger.Any("panic", v))
			}
		}()
		task(ctx, i)
	}

	if p.concurrency == 1 || n == 1 {
		for i := 0; i < n; i++ {
			safe(i)
		}
		return errors.Join(panics...)
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			safe(i)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(panics...)
}

// Map applies fn to every element of in through the pool. The result slice
// has the same length and order as in, regardless of completion order. When
// fn panics for an item, that slot is filled by recovered (or left as the
// zero value when recovered is nil).
func Map[T, R any](ctx context.Context, p *Pool, in []T, fn func(ctx context.Context, item T) R, recovered func(item T, err error) R) []R {
	out := make([]R, len(in))
	err := p.Run(ctx, len(in), func(ctx context.Context, i int) {
		out[i] = fn(ctx, in[i])
	})
	if err == nil || recovered == nil {
		return out
	}
	var pe *PanicError
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		if errors.As(e, &pe) {
			out[pe.Index] = recovered(in[pe.Index], pe)
		}
	}
	return out
}
