package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pooldraft/internal/adapters/http/api"
	"github.com/okian/pooldraft/internal/adapters/http/swagger"
	"github.com/okian/pooldraft/internal/adapters/mq/feed"
	"github.com/okian/pooldraft/internal/adapters/mq/queue"
	"github.com/okian/pooldraft/internal/adapters/repository"
	app "github.com/okian/pooldraft/internal/app"
	"github.com/okian/pooldraft/internal/config"
	"github.com/okian/pooldraft/internal/domain/guard"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
	"github.com/okian/pooldraft/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "pooldraft exited", logger.Error(err))
		os.Exit(1)
	}
}

// application bundles the long-lived components of the server.
type application struct {
	store   *repository.Store
	queue   *queue.InMemoryQueue
	hub     *feed.Hub
	poller  *repository.RosterPoller
	svc     *app.Service
	handler http.Handler
	log     logger.Logger
}

// newApplication opens storage and wires the roster feed, the service and
// the HTTP routes. Nothing runs until start.
func newApplication(cfg *config.Config, log logger.Logger) (*application, error) {
	store, err := repository.Open(cfg.DBPath,
		repository.WithLogger(log.Named("store")),
		repository.WithDefaultSettings(model.Settings{
			StartingBudget:  cfg.DefaultStartingBudget,
			BidTimerSeconds: cfg.DefaultBidTimerSeconds,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.RosterQueueSize))
	hub := feed.NewHub(q, feed.WithName("roster"), feed.WithLogger(log.Named("roster-feed")))
	poller := repository.NewRosterPoller(store, q,
		repository.WithPollInterval(cfg.RosterPollInterval()),
		repository.WithPollerLogger(log.Named("roster-poller")),
	)

	svc := app.New(store, hub,
		app.WithLogger(log.Named("service")),
		app.WithHydrateTimeout(cfg.HydrateTimeout()),
		app.WithCommitTimeout(cfg.CommitTimeout()),
		app.WithSessionTTL(cfg.SessionTTL()),
		app.WithGuard(guard.NewInMemoryGuard(guard.WithMaxSize(cfg.MaxCommitsInFlight))),
	)

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc).Register(mux)

	return &application{
		store:   store,
		queue:   q,
		hub:     hub,
		poller:  poller,
		svc:     svc,
		handler: mux,
		log:     log,
	}, nil
}

// start launches the feed dispatcher, the roster poller and the service
// sweeper under g.
func (a *application) start(ctx context.Context, g *errgroup.Group) error {
	g.Go(func() error { a.hub.Run(ctx); return nil })
	g.Go(func() error { a.poller.Run(ctx); return nil })
	return a.svc.Start(ctx)
}

// stop tears components down in reverse dependency order.
func (a *application) stop(ctx context.Context) {
	a.svc.Stop()
	if err := a.poller.Shutdown(ctx); err != nil {
		a.log.Warn(ctx, "poller shutdown", logger.Error(err))
	}
	_ = a.queue.Close()
	if err := a.hub.Shutdown(ctx); err != nil {
		a.log.Warn(ctx, "feed shutdown", logger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(ctx, "store close", logger.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a, err := newApplication(cfg, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := a.start(gctx, g); err != nil {
		a.stop(context.Background())
		return fmt.Errorf("start service: %w", err)
	}

	g.Go(func() error { startSystemMetricsUpdater(gctx); return nil })
	g.Go(func() error { startServiceMetricsUpdater(gctx, a.svc); return nil })

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("db_path", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
		}
		a.stop(shutdownCtx)
		return nil
	})

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// startSystemMetricsUpdater refreshes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.Stats()
	metrics.UpdateSessionsActive(stats.Sessions)
	metrics.UpdateCommitsInFlight(stats.CommitsInFlight)
}
