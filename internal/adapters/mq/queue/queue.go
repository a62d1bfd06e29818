// Package queue buffers roster snapshots between the store poller and the
// feed dispatcher.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/metrics"
)

const defaultQueueCapacity = 64

// Snapshot is the payload type flowing through the queue.
type Snapshot = model.RosterSnapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot. It returns ErrFull or ErrClosed when the
	// snapshot was not accepted.
	Enqueue(ctx context.Context, s Snapshot) error

	// Dequeue returns a channel receiving snapshots in enqueue order. It is
	// closed once the queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len() int

	// Close stops accepting snapshots. Pending ones remain readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)
	metrics.UpdateRosterQueueSize(0)
	return q
}

// Enqueue adds a snapshot without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: value semantics for channel send
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.snapshots <- s:
		metrics.UpdateRosterQueueSize(len(q.snapshots))
		return nil
	default:
		metrics.RecordRosterQueueDropped()
		return ErrFull
	}
}

// Dequeue returns a channel that receives snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for {
			select {
			case s, ok := <-q.snapshots:
				if !ok {
					return
				}
				metrics.UpdateRosterQueueSize(len(q.snapshots))
				select {
				case out <- s:
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

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len() int {
	return len(q.snapshots)
}

// Close stops the queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.snapshots)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
