// Package worker runs retraining jobs off the trigger queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/salaryd/internal/adapters/mq/queue"
	"github.com/okian/salaryd/internal/domain/retrain"
	"github.com/okian/salaryd/pkg/logger"
	"github.com/okian/salaryd/pkg/metrics"
)

// Runner performs one retraining run.
type Runner interface {
	Retrain(ctx context.Context) (retrain.Outcome, error)
}

// Queue defines how workers receive triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Trigger
}

// Worker processes triggers until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the run in progress, if any.
	Shutdown(ctx context.Context) error
}

// DefaultRetryDelay spaces retries while another run holds the retraining lock.
const DefaultRetryDelay = 250 * time.Millisecond

// InMemoryWorker implements Worker over an in-process queue.
type InMemoryWorker struct {
	queue      Queue
	runner     Runner
	name       string
	retryDelay time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		runner:     runner,
		name:       "retrain-worker",
		retryDelay: DefaultRetryDelay,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Warn(ctx, "retraining trigger failed",
					logger.String("worker", w.name),
					logger.String("reason", t.Reason),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one retraining for t. When another run holds the lock the
// trigger is retried after it finishes, since that run may have gathered its
// data before the feedback behind t arrived.
func (w *InMemoryWorker) process(ctx context.Context, t queue.Trigger) error {
	w.logger.Debug(ctx, "retraining triggered",
		logger.String("reason", t.Reason),
		logger.Duration("waited", time.Since(t.At)))

	out, err := w.runner.Retrain(ctx)
	for errors.Is(err, retrain.ErrInProgress) {
		select {
		case <-ctx.Done():
			return nil
		case <-w.shutdown:
			return nil
		case <-time.After(w.retryDelay):
		}
		out, err = w.runner.Retrain(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		metrics.RecordErrorByComponent("worker", "retrain")
		return fmt.Errorf("retrain on %s trigger: %w", t.Reason, err)
	}

	w.logger.Debug(ctx, "retraining trigger handled",
		logger.String("reason", t.Reason),
		logger.String("status", out.Status),
		logger.Bool("promoted", out.Promoted))
	return nil
}
