// Package guard tracks which events have a commit in flight so that two
// commits for the same event never interleave.
package guard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/pooldraft/pkg/metrics"
)

// Guard admits at most one holder per key.
type Guard interface {
	// Acquire atomically claims key. It returns ErrInFlight when the key is
	// already held, or ErrCapacity when the bounded guard is full.
	Acquire(ctx context.Context, key string) error

	// Release frees key. Releasing a key that is not held is a no-op.
	Release(ctx context.Context, key string)

	// Held reports whether key is currently claimed.
	Held(key string) bool

	Size() int64
}

type inMemoryGuard struct {
	mu      sync.Mutex
	held    map[string]struct{}
	maxSize int // 0 or negative means unbounded
	size    atomic.Int64
}

// NewInMemoryGuard creates a process-local guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.held = make(map[string]struct{})
	return g
}

func (g *inMemoryGuard) Acquire(ctx context.Context, key string) error {
	const op = "guard.acquire"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		return fmt.Errorf("%s %q: %w", op, key, ErrInFlight)
	}
	if g.maxSize > 0 && len(g.held) >= g.maxSize {
		return fmt.Errorf("%s %q: %w", op, key, ErrCapacity)
	}
	g.held[key] = struct{}{}
	metrics.UpdateCommitsInFlight(g.size.Add(1))
	return nil
}

func (g *inMemoryGuard) Release(ctx context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		delete(g.held, key)
		metrics.UpdateCommitsInFlight(g.size.Add(-1))
	}
}

func (g *inMemoryGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
