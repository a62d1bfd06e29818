// Package roster mirrors the master candidate list for one session and
// serves filtered views of it.
package roster

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// Provider pushes full roster snapshots to subscribers. Subscribe must
// deliver the current snapshot promptly and keep delivering on change until
// the returned function is called.
type Provider interface {
	Subscribe(onChange func(model.RosterSnapshot)) (unsubscribe func())
}

// Cache is a read-only, eventually consistent mirror of the roster. Apply is
// its only write path.
type Cache struct {
	provider Provider
	logger   logger.Logger

	mu          sync.RWMutex
	candidates  []model.Candidate
	byID        map[string]int
	version     uint64
	ready       bool
	unsubscribe func()
	started     bool
	closed      bool
	onApply     func(model.RosterSnapshot)
}

// NewCache creates a cache over provider. Call Start to subscribe.
func NewCache(provider Provider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		byID:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("roster")
	}
	return c
}

// Start subscribes to the provider. The provider may deliver the first
// snapshot before Start returns.
func (c *Cache) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.started:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	unsubscribe := c.provider.Subscribe(c.Apply)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return ErrClosed
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.logger.Debug(ctx, "roster subscription started")
	return nil
}

// Close tears the subscription down. Snapshots delivered afterwards are
// ignored. Close is idempotent.
func (c *Cache) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.closed = true
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Apply replaces the mirror with snap. Candidates are kept sorted by name.
func (c *Cache) Apply(snap model.RosterSnapshot) {
	sorted := append([]model.Candidate(nil), snap.Candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Name < sorted[j].Name
	})
	byID := make(map[string]int, len(sorted))
	for i, cand := range sorted {
		byID[cand.ID] = i
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.candidates = sorted
	c.byID = byID
	c.version = snap.Version
	c.ready = true
	hook := c.onApply
	c.mu.Unlock()

	metrics.RecordRosterUpdate(len(sorted))
	if hook != nil {
		hook(snap)
	}
}

// Filter returns candidates whose name contains search, case-insensitively,
// and whose role equals role. RoleAll or an empty role disables the role
// filter; an empty search matches every name.
func (c *Cache) Filter(search string, role model.Role) []model.Candidate {
	needle := strings.ToLower(strings.TrimSpace(search))
	anyRole := role == "" || role == model.RoleAll

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Candidate, 0, len(c.candidates))
	for _, cand := range c.candidates {
		if !anyRole && cand.Role != role {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(cand.Name), needle) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// Get looks a candidate up by id.
func (c *Cache) Get(id string) (model.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return model.Candidate{}, false
	}
	return c.candidates[i], true
}

// All returns every candidate sorted by name.
func (c *Cache) All() []model.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Candidate(nil), c.candidates...)
}

// Len returns the number of mirrored candidates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.candidates)
}

// Version returns the version of the last applied snapshot.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Ready reports whether at least one snapshot has been applied.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}
