package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
)

const defaultPollInterval = 2 * time.Second

// RosterSource is the read side of the roster the poller watches.
type RosterSource interface {
	RosterVersion(ctx context.Context) (uint64, error)
	RosterSnapshot(ctx context.Context) (model.RosterSnapshot, error)
}

// Publisher accepts roster snapshots for fan-out.
type Publisher interface {
	Enqueue(ctx context.Context, s model.RosterSnapshot) error
}

// PollerOption applies a configuration option to the RosterPoller.
type PollerOption func(*RosterPoller)

// WithPollInterval sets how often the roster version is checked.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *RosterPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *RosterPoller) {
		if l != nil {
			p.logger = l
		}
	}
}

// RosterPoller publishes a snapshot whenever the stored roster version
// changes. The first poll always publishes.
type RosterPoller struct {
	source    RosterSource
	publisher Publisher
	interval  time.Duration
	logger    logger.Logger

	mu        sync.Mutex
	published bool
	version   uint64

	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRosterPoller creates a poller. Call Run to start it.
func NewRosterPoller(source RosterSource, publisher Publisher, opts ...PollerOption) *RosterPoller {
	p := &RosterPoller{
		source:    source,
		publisher: publisher,
		interval:  defaultPollInterval,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("roster-poller")
	}
	return p
}

// Run polls until ctx is done or Shutdown is called.
func (p *RosterPoller) Run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil {
			p.logger.Warn(ctx, "roster poll failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
		}
	}
}

// Poll checks the version once and publishes a snapshot if it changed. A
// snapshot the publisher rejects is retried on the next poll.
func (p *RosterPoller) Poll(ctx context.Context) error {
	version, err := p.source.RosterVersion(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	unchanged := p.published && version == p.version
	p.mu.Unlock()
	if unchanged {
		return nil
	}

	snap, err := p.source.RosterSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := p.publisher.Enqueue(ctx, snap); err != nil {
		return fmt.Errorf("publish roster v%d: %w", snap.Version, err)
	}

	p.mu.Lock()
	p.published = true
	p.version = snap.Version
	p.mu.Unlock()

	p.logger.Debug(ctx, "roster published",
		logger.Uint64("version", snap.Version),
		logger.Int("candidates", len(snap.Candidates)),
	)
	return nil
}

// Shutdown stops the poller and waits for it to exit.
func (p *RosterPoller) Shutdown(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.shutdown) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
