package worker

import (
	"time"

	"github.com/okian/salaryd/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRetryDelay sets how long the worker waits before retrying a trigger
// that found another run in progress.
func WithRetryDelay(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}
