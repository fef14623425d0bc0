// Package queue holds retraining triggers until the retrain worker picks
// them up.
//
// The in-memory queue is small and non-blocking: when it is full a new
// trigger is coalesced into the pending one, because a single retraining
// run already sees all feedback recorded before it starts.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/salaryd/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1
)

// Trigger reasons.
const (
	ReasonSchedule = "schedule"
	ReasonFeedback = "feedback"
	ReasonManual   = "manual"
)

// Trigger asks for one retraining run.
type Trigger struct {
	Reason string
	At     time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger to the queue.
	// Returns false if the queue is full or closed and the trigger was dropped.
	Enqueue(ctx context.Context, t Trigger) bool

	// Dequeue returns a channel that will receive triggers as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Trigger

	// Len returns the current number of pending triggers.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	triggers chan Trigger
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.triggers = make(chan Trigger, q.capacity)
	metrics.UpdateRetrainQueueDepth(0)
	return q
}

// Enqueue adds t to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Trigger) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRetrainTrigger(t.Reason, "closed")
		return false
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}

	select {
	case q.triggers <- t:
		metrics.RecordRetrainTrigger(t.Reason, "queued")
		metrics.UpdateRetrainQueueDepth(len(q.triggers))
		return true
	case <-ctx.Done():
		metrics.RecordRetrainTrigger(t.Reason, "cancelled")
		return false
	default:
		metrics.RecordRetrainTrigger(t.Reason, "coalesced")
		return false
	}
}

// Dequeue returns a channel that will receive triggers as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Trigger {
	out := make(chan Trigger)
	go func() {
		defer close(out)
		for {
			select {
			case t, ok := <-q.triggers:
				if !ok {
					return
				}
				metrics.UpdateRetrainQueueDepth(len(q.triggers))
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of pending triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.triggers)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.triggers)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
