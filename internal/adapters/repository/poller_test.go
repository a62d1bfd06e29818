package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/pooldraft/internal/adapters/repository"
	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

type recordingPublisher struct {
	mu    sync.Mutex
	snaps []model.RosterSnapshot
	err   error
}

func (p *recordingPublisher) Enqueue(_ context.Context, s model.RosterSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.snaps = append(p.snaps, s)
	return nil
}

func (p *recordingPublisher) versions() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint64, len(p.snaps))
	for i, s := range p.snaps {
		out[i] = s.Version
	}
	return out
}

func TestRosterPoller(t *testing.T) {
	ctx := context.Background()

	Convey("Given a poller over a store", t, func() {
		store := openStore(t)
		pub := &recordingPublisher{}
		poller := repository.NewRosterPoller(store, pub)

		Convey("When polling twice without changes", func() {
			So(poller.Poll(ctx), ShouldBeNil)
			So(poller.Poll(ctx), ShouldBeNil)

			Convey("Then only the first poll publishes", func() {
				So(pub.versions(), ShouldHaveLength, 1)
			})
		})

		Convey("When the roster changes between polls", func() {
			So(poller.Poll(ctx), ShouldBeNil)
			_, err := store.UpsertCandidate(ctx, model.Candidate{Name: "MS Dhoni", Role: model.RoleWicketKeeper, SkillScore: 85, BasePrice: 2}, "admin")
			So(err, ShouldBeNil)
			So(poller.Poll(ctx), ShouldBeNil)

			Convey("Then a new snapshot carries the candidate", func() {
				v := pub.versions()
				So(v, ShouldHaveLength, 2)
				So(v[1], ShouldBeGreaterThan, v[0])
				So(pub.snaps[1].Candidates, ShouldHaveLength, 1)
			})
		})

		Convey("When the publisher rejects a snapshot", func() {
			pub.err = errors.New("queue full")
			So(poller.Poll(ctx), ShouldNotBeNil)
			pub.err = nil

			Convey("Then the next poll retries it", func() {
				So(poller.Poll(ctx), ShouldBeNil)
				So(pub.versions(), ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a running poller", t, func() {
		store := openStore(t)
		pub := &recordingPublisher{}
		poller := repository.NewRosterPoller(store, pub, repository.WithPollInterval(10*time.Millisecond))
		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go poller.Run(runCtx)

		_, err := store.UpsertCandidate(ctx, model.Candidate{Name: "Rohit Sharma", Role: model.RoleBatsman, SkillScore: 92, BasePrice: 2}, "admin")
		So(err, ShouldBeNil)

		Convey("Then changes are published and Shutdown stops it", func() {
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				snaps := pub.versions()
				if len(snaps) > 0 && snaps[len(snaps)-1] >= 1 {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}
			v := pub.versions()
			So(v, ShouldNotBeEmpty)
			So(v[len(v)-1], ShouldBeGreaterThanOrEqualTo, 1)

			stopCtx, stopCancel := context.WithTimeout(ctx, time.Second)
			defer stopCancel()
			So(poller.Shutdown(stopCtx), ShouldBeNil)
		})
	})
}
