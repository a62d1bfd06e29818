package smoke

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
	"github.com/okian/pooldraft/pkg/logger"
)

// editedScore is written to the first member of every event so hydration
// can be checked for override values as well as structure.
const editedScore = 77

// Run executes cfg.Sessions curation flows with at most cfg.Workers in
// flight. The returned error wraps ErrFailures when any session failed.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("smoke")
	stats := Stats{Sessions: cfg.Sessions, StartTime: time.Now()}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.Int("groups", cfg.Groups),
		logger.Int("perGroup", cfg.PerGroup),
	)

	if err := checkHealth(ctx, cfg); err != nil {
		return stats, err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Sessions; i++ {
		g.Go(func() error {
			committed, err := runSession(gctx, cfg, i)
			mu.Lock()
			defer mu.Unlock()
			if committed {
				stats.Committed++
			}
			if err != nil {
				stats.Failed++
				stats.Failures = append(stats.Failures, fmt.Errorf("session %d: %w", i, err))
				log.Warn(gctx, "smoke session failed", logger.Int("session", i), logger.Error(err))
				return nil
			}
			stats.Verified++
			if cfg.Verbose {
				log.Info(gctx, "smoke session verified", logger.Int("session", i))
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "smoke run completed",
		logger.Int("committed", stats.Committed),
		logger.Int("verified", stats.Verified),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrFailures, stats.Failed, stats.Sessions)
	}
	return stats, nil
}

func checkHealth(ctx context.Context, cfg Config) error {
	c := newClient(cfg.BaseURL, "smoke", cfg.Timeout)
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// runSession curates one fresh event end to end. It reports whether the
// commit succeeded so verification failures are counted separately.
func runSession(ctx context.Context, cfg Config, n int) (bool, error) {
	c := newClient(cfg.BaseURL, fmt.Sprintf("smoke-%d", n), cfg.Timeout)

	var ev model.Event
	if err := c.do(ctx, http.MethodPost, "/events", nil, http.StatusCreated, &ev); err != nil {
		return false, err
	}

	var view types.SessionView
	if err := c.do(ctx, http.MethodPost, "/sessions", map[string]string{"event_id": ev.ID}, http.StatusCreated, &view); err != nil {
		return false, err
	}
	sid := view.SessionID
	defer func() {
		_ = c.do(context.WithoutCancel(ctx), http.MethodDelete, "/sessions/"+sid, nil, http.StatusNoContent, nil)
	}()

	need := cfg.Groups * cfg.PerGroup
	roster, err := waitRoster(ctx, c, sid, need, cfg.RosterWait)
	if err != nil {
		return false, err
	}

	next := 0
	for g := 0; g < cfg.Groups; g++ {
		if err := c.do(ctx, http.MethodPost, "/sessions/"+sid+"/groups", map[string]string{}, http.StatusCreated, &view); err != nil {
			return false, err
		}
		groupID := view.Groups[len(view.Groups)-1].ID
		for k := 0; k < cfg.PerGroup; k++ {
			if err := c.do(ctx, http.MethodPost, "/sessions/"+sid+"/staging/"+roster[next].ID, nil, http.StatusOK, nil); err != nil {
				return false, err
			}
			next++
		}
		if err := c.do(ctx, http.MethodPost, "/sessions/"+sid+"/assign", map[string]string{"group_id": groupID}, http.StatusOK, &view); err != nil {
			return false, err
		}
	}

	first := view.Groups[0].Members[0].CandidateID
	edit := map[string]any{"score": editedScore, "price": "1.25"}
	if err := c.do(ctx, http.MethodPut, "/sessions/"+sid+"/candidates/"+first, edit, http.StatusOK, &view); err != nil {
		return false, err
	}

	var res types.CommitResult
	if err := c.do(ctx, http.MethodPost, "/sessions/"+sid+"/commit", nil, http.StatusOK, &res); err != nil {
		return false, err
	}
	if res.Overrides != need || res.Groups != cfg.Groups {
		return true, fmt.Errorf("%w: commit stored %d groups and %d overrides", ErrMismatch, res.Groups, res.Overrides)
	}

	return true, verifyHydration(ctx, c, ev.ID, view, first)
}

// waitRoster polls the session roster until it holds at least need
// uncurated candidates.
func waitRoster(ctx context.Context, c *client, sid string, need int, wait time.Duration) ([]types.RosterEntry, error) {
	deadline := time.Now().Add(wait)
	for {
		var entries []types.RosterEntry
		if err := c.do(ctx, http.MethodGet, "/sessions/"+sid+"/roster", nil, http.StatusOK, &entries); err != nil {
			return nil, err
		}
		if len(entries) >= need {
			return entries, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: have %d, need %d", ErrRosterTooThin, len(entries), need)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rosterPollDelay):
		}
	}
}
