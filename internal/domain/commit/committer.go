// Package commit persists a curated structure with the replace-all
// protocol: validate locally, claim the event, then hand the full setup to
// the store as one transaction.
package commit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pooldraft/internal/domain/guard"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/validate"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// Store applies a setup atomically: every stored override of the event is
// replaced and the group descriptors overwritten, or nothing changes.
type Store interface {
	CommitSetup(ctx context.Context, eventID, hostID string, setup model.Setup) error
}

// Source is the snapshot being committed.
type Source interface {
	validate.Snapshot
	Setup() model.Setup
}

// Result summarises a successful commit.
type Result struct {
	EventID   string        `json:"event_id"`
	Groups    int           `json:"groups"`
	Overrides int           `json:"overrides"`
	Duration  time.Duration `json:"duration"`
}

// Committer is the sole writer of curated setups.
type Committer struct {
	store   Store
	guard   guard.Guard
	logger  logger.Logger
	timeout time.Duration
}

// New creates a Committer.
func New(store Store, g guard.Guard, opts ...Option) *Committer {
	c := &Committer{
		store:   store,
		guard:   g,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("commit")
	}
	return c
}

// Commit validates src and writes it for eventID. Validation failures
// return a *validate.ValidationError without touching the store.
func (c *Committer) Commit(ctx context.Context, eventID, hostID string, src Source) (Result, error) {
	const op = "commit.commit"
	start := time.Now()

	if err := validate.Setup(src); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				metrics.RecordValidationReject(v.Kind)
			}
		}
		metrics.RecordCommit("rejected", metrics.SinceMs(start))
		c.logger.Info(ctx, "commit rejected by validation",
			logger.String("event_id", eventID),
			logger.Error(err),
		)
		return Result{}, err
	}

	if err := c.guard.Acquire(ctx, eventID); err != nil {
		if errors.Is(err, guard.ErrInFlight) {
			metrics.RecordCommit("in_flight", metrics.SinceMs(start))
			return Result{}, fmt.Errorf("%s %q: %w", op, eventID, ErrCommitInFlight)
		}
		return Result{}, fmt.Errorf("%s %q: %w", op, eventID, err)
	}
	defer c.guard.Release(ctx, eventID)

	setup := src.Setup()
	for i := range setup.Overrides {
		setup.Overrides[i].Status = model.OverridePending
	}

	storeCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.store.CommitSetup(storeCtx, eventID, hostID, setup); err != nil {
		metrics.RecordCommit("failed", metrics.SinceMs(start))
		c.logger.Error(ctx, "commit failed",
			logger.String("event_id", eventID),
			logger.Error(err),
		)
		return Result{}, fmt.Errorf("%s %q: %w: %w", op, eventID, ErrTransient, err)
	}

	res := Result{
		EventID:   eventID,
		Groups:    len(setup.Groups),
		Overrides: len(setup.Overrides),
		Duration:  time.Since(start),
	}
	metrics.RecordCommit("ok", metrics.SinceMs(start))
	c.logger.Info(ctx, "setup committed",
		logger.String("event_id", eventID),
		logger.String("host_id", hostID),
		logger.Int("groups", res.Groups),
		logger.Int("overrides", res.Overrides),
		logger.Duration("duration", res.Duration),
	)
	return res, nil
}
