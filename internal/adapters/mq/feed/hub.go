// Package feed fans roster snapshots out to session subscribers. A Hub runs
// one dispatcher goroutine, so a subscriber's callbacks never overlap.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pooldraft/internal/adapters/mq/queue"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// Source defines how the hub receives snapshots.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

type subscriber struct {
	fn      func(model.RosterSnapshot)
	primed  bool
	removed bool
}

// Hub delivers every dequeued snapshot to all subscribers and primes new
// subscribers with the latest snapshot.
type Hub struct {
	source Source
	name   string
	logger logger.Logger

	mu       sync.Mutex
	subs     map[uint64]*subscriber
	nextID   uint64
	latest   model.RosterSnapshot
	haveSnap bool

	wake     chan struct{}
	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub reading from source. Call Run to start dispatching.
func NewHub(source Source, opts ...Option) *Hub {
	h := &Hub{
		source:   source,
		name:     "roster-feed",
		subs:     make(map[uint64]*subscriber),
		wake:     make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named(h.name)
	}
	return h
}

// Subscribe registers fn. The dispatcher calls fn with the latest snapshot
// as soon as one exists, then again on every change. After the returned
// function is called no further deliveries start.
func (h *Hub) Subscribe(fn func(model.RosterSnapshot)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	sub := &subscriber{fn: fn}
	h.subs[id] = sub
	metrics.UpdateRosterSubscribers(len(h.subs))
	h.mu.Unlock()

	h.signal()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			sub.removed = true
			delete(h.subs, id)
			metrics.UpdateRosterSubscribers(len(h.subs))
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Latest returns the most recent snapshot seen by the dispatcher.
func (h *Hub) Latest() (model.RosterSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.haveSnap
}

func (h *Hub) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run dispatches until ctx is done, Shutdown is called, or the source
// channel closes.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	snapshots := h.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.shutdown:
			return
		case <-h.wake:
			h.prime()
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			h.broadcast(ctx, snap)
		}
	}
}

// Shutdown stops the dispatcher and waits for it to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.shutdown) })

	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		h.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// prime delivers the latest snapshot to subscribers that have not seen one.
func (h *Hub) prime() {
	h.mu.Lock()
	if !h.haveSnap {
		h.mu.Unlock()
		return
	}
	snap := h.latest
	var pending []*subscriber
	for _, sub := range h.subs {
		if !sub.primed {
			sub.primed = true
			pending = append(pending, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range pending {
		h.deliver(sub, snap)
	}
}

func (h *Hub) broadcast(ctx context.Context, snap model.RosterSnapshot) {
	h.mu.Lock()
	h.latest = snap
	h.haveSnap = true
	targets := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		sub.primed = true
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		h.deliver(sub, snap)
	}
	h.logger.Debug(ctx, "roster snapshot dispatched",
		logger.Uint64("version", snap.Version),
		logger.Int("candidates", len(snap.Candidates)),
		logger.Int("subscribers", len(targets)),
	)
}

func (h *Hub) deliver(sub *subscriber, snap model.RosterSnapshot) {
	h.mu.Lock()
	removed := sub.removed
	h.mu.Unlock()
	if removed {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error(context.Background(), "roster subscriber panicked", logger.Any("panic", r))
		}
	}()
	sub.fn(snap)
}
