package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pooldraft/internal/adapters/http/api"
	"github.com/okian/pooldraft/internal/adapters/mq/feed"
	"github.com/okian/pooldraft/internal/adapters/mq/queue"
	"github.com/okian/pooldraft/internal/adapters/repository"
	service "github.com/okian/pooldraft/internal/app"
	"github.com/okian/pooldraft/internal/seed"
	"github.com/okian/pooldraft/internal/smoke"
	"github.com/okian/pooldraft/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// startServer runs the full stack over a temp database and returns its URL.
func startServer(t *testing.T, ctx context.Context) string {
	store, err := repository.Open(filepath.Join(t.TempDir(), "smoke.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := seed.Run(ctx, store, seed.DefaultRoster(), "test"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	q := queue.NewInMemoryQueue()
	hub := feed.NewHub(q)
	poller := repository.NewRosterPoller(store, q, repository.WithPollInterval(20*time.Millisecond))
	go hub.Run(ctx)
	go poller.Run(ctx)

	svc := service.New(store, hub)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
		_ = poller.Shutdown(context.Background())
		_ = q.Close()
		_ = hub.Shutdown(context.Background())
		_ = store.Close()
	})
	return srv.URL
}

func TestRun(t *testing.T) {
	Convey("Given a running pooldraft server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		url := startServer(t, ctx)

		Convey("Concurrent sessions commit and hydrate back intact", func() {
			stats, err := smoke.Run(ctx, smoke.Config{
				BaseURL:  url,
				Sessions: 6,
				Workers:  3,
				Groups:   3,
				PerGroup: 2,
			})
			So(err, ShouldBeNil)
			So(stats.Committed, ShouldEqual, 6)
			So(stats.Verified, ShouldEqual, 6)
			So(stats.Failed, ShouldEqual, 0)
		})

		Convey("A roster smaller than the plan fails every session", func() {
			stats, err := smoke.Run(ctx, smoke.Config{
				BaseURL:    url,
				Sessions:   2,
				Groups:     5,
				PerGroup:   5,
				RosterWait: 200 * time.Millisecond,
			})
			So(errors.Is(err, smoke.ErrFailures), ShouldBeTrue)
			So(stats.Failed, ShouldEqual, 2)
			So(errors.Is(stats.Failures[0], smoke.ErrRosterTooThin), ShouldBeTrue)
		})
	})
}

func TestRunUnhealthy(t *testing.T) {
	Convey("A server that fails health checks aborts the run", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := smoke.Run(context.Background(), smoke.Config{BaseURL: srv.URL})
		So(errors.Is(err, smoke.ErrUnhealthy), ShouldBeTrue)

		var serr *smoke.StatusError
		So(errors.As(err, &serr), ShouldBeTrue)
		So(serr.Status, ShouldEqual, http.StatusServiceUnavailable)
	})
}
