// Package worker runs per-item tasks with bounded concurrency while keeping
// results in input order.
package worker

import (
	"github.com/okian/worklog/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithConcurrency sets how many tasks may run at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithName sets the pool name for identification and logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
