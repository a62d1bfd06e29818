package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pooldraft/internal/adapters/http/api"
	"github.com/okian/pooldraft/internal/config"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/types"
	"github.com/okian/pooldraft/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.New()
	cfg.DBPath = filepath.Join(t.TempDir(), "pooldraft.db")
	cfg.RosterPollIntervalMS = 50
	cfg.DefaultStartingBudget = 120
	return cfg
}

func TestApplication(t *testing.T) {
	convey.Convey("Given a wired application", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		a, err := newApplication(testConfig(t), logger.Get())
		convey.So(err, convey.ShouldBeNil)

		_, err = a.store.UpsertCandidate(ctx, model.Candidate{
			ID: "c1", Name: "Shubman Gill", Role: model.RoleBatsman, SkillScore: 88, BasePrice: 1.5,
		}, "test")
		convey.So(err, convey.ShouldBeNil)

		g, gctx := errgroup.WithContext(ctx)
		convey.So(a.start(gctx, g), convey.ShouldBeNil)
		defer func() {
			a.stop(context.Background())
			cancel()
			_ = g.Wait()
		}()

		srv := httptest.NewServer(a.handler)
		defer srv.Close()

		post := func(path, body string) *http.Response {
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+path, strings.NewReader(body))
			req.Header.Set(api.OrganizerHeader, "host-1")
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("Then an event can be created and curated over HTTP", func() {
			resp := post("/events", "")
			defer resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
			var ev model.Event
			convey.So(json.NewDecoder(resp.Body).Decode(&ev), convey.ShouldBeNil)
			convey.So(ev.Settings.StartingBudget, convey.ShouldEqual, 120)

			resp2 := post("/sessions", `{"event_id":"`+ev.ID+`"}`)
			defer resp2.Body.Close()
			convey.So(resp2.StatusCode, convey.ShouldEqual, http.StatusCreated)
			var view types.SessionView
			convey.So(json.NewDecoder(resp2.Body).Decode(&view), convey.ShouldBeNil)

			resp3 := post("/sessions/"+view.SessionID+"/commit", "")
			defer resp3.Body.Close()
			convey.So(resp3.StatusCode, convey.ShouldEqual, http.StatusUnprocessableEntity)
		})

		convey.Convey("Then the docs and metrics are served", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/healthz", "/stats"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				_ = resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("Then they return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a single system update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then service stats feed the gauges", func() {
			a, err := newApplication(testConfig(t), logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = a.store.Close() }()
			convey.So(func() { updateServiceMetrics(a.svc) }, convey.ShouldNotPanic)
		})
	})
}
