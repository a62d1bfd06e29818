package roster_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/pooldraft/internal/domain/model"
	"github.com/okian/pooldraft/internal/domain/roster"
	"github.com/okian/pooldraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeProvider delivers synchronously and records unsubscribes.
type fakeProvider struct {
	mu           sync.Mutex
	current      model.RosterSnapshot
	subscribers  map[int]func(model.RosterSnapshot)
	next         int
	unsubscribed int
}

func newFakeProvider(snap model.RosterSnapshot) *fakeProvider {
	return &fakeProvider{current: snap, subscribers: map[int]func(model.RosterSnapshot){}}
}

func (p *fakeProvider) Subscribe(fn func(model.RosterSnapshot)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subscribers[id] = fn
	snap := p.current
	p.mu.Unlock()

	fn(snap)
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subscribers[id]; ok {
			delete(p.subscribers, id)
			p.unsubscribed++
		}
	}
}

func (p *fakeProvider) publish(snap model.RosterSnapshot) {
	p.mu.Lock()
	p.current = snap
	fns := make([]func(model.RosterSnapshot), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func seedSnapshot() model.RosterSnapshot {
	return model.RosterSnapshot{Version: 1, Candidates: []model.Candidate{
		{ID: "c1", Name: "Virat Kohli", Role: model.RoleBatsman, SkillScore: 95, BasePrice: 2},
		{ID: "c2", Name: "Jasprit Bumrah", Role: model.RoleBowler, SkillScore: 94, BasePrice: 2},
		{ID: "c3", Name: "Ravindra Jadeja", Role: model.RoleAllRounder, SkillScore: 90, BasePrice: 1.5},
		{ID: "c4", Name: "Rishabh Pant", Role: model.RoleWicketKeeper, SkillScore: 88, BasePrice: 1.5},
		{ID: "c5", Name: "Ravichandran Ashwin", Role: model.RoleBowler, SkillScore: 86, BasePrice: 1},
	}}
}

func names(cands []model.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	return out
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started cache", t, func() {
		provider := newFakeProvider(seedSnapshot())
		cache := roster.NewCache(provider)
		So(cache.Ready(), ShouldBeFalse)
		So(cache.Start(ctx), ShouldBeNil)

		Convey("Then the first snapshot is mirrored sorted by name", func() {
			So(cache.Ready(), ShouldBeTrue)
			So(cache.Version(), ShouldEqual, 1)
			So(names(cache.All()), ShouldResemble, []string{
				"Jasprit Bumrah", "Ravichandran Ashwin", "Ravindra Jadeja", "Rishabh Pant", "Virat Kohli",
			})
		})

		Convey("When filtering by a case-insensitive name fragment", func() {
			got := cache.Filter("RAV", model.RoleAll)
			So(names(got), ShouldResemble, []string{"Ravichandran Ashwin", "Ravindra Jadeja"})
		})

		Convey("When filtering by role and name together", func() {
			got := cache.Filter("rav", model.RoleBowler)
			So(names(got), ShouldResemble, []string{"Ravichandran Ashwin"})
		})

		Convey("When the role is empty and the search blank", func() {
			So(cache.Filter("  ", ""), ShouldHaveLength, 5)
		})

		Convey("When nothing matches", func() {
			So(cache.Filter("dhoni", model.RoleAll), ShouldBeEmpty)
		})

		Convey("When looking up by id", func() {
			c, ok := cache.Get("c4")
			So(ok, ShouldBeTrue)
			So(c.Name, ShouldEqual, "Rishabh Pant")
			_, ok = cache.Get("c9")
			So(ok, ShouldBeFalse)
		})

		Convey("When the roster changes", func() {
			provider.publish(model.RosterSnapshot{Version: 2, Candidates: []model.Candidate{
				{ID: "c9", Name: "MS Dhoni", Role: model.RoleWicketKeeper, SkillScore: 85, BasePrice: 2},
			}})

			Convey("Then the mirror is replaced wholesale", func() {
				So(cache.Version(), ShouldEqual, 2)
				So(cache.Len(), ShouldEqual, 1)
				_, ok := cache.Get("c1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When starting twice", func() {
			So(errors.Is(cache.Start(ctx), roster.ErrAlreadyStarted), ShouldBeTrue)
		})

		Convey("When closed", func() {
			cache.Close()
			cache.Close()
			provider.publish(model.RosterSnapshot{Version: 3})

			Convey("Then the subscription is torn down once and updates are ignored", func() {
				So(provider.unsubscribed, ShouldEqual, 1)
				So(cache.Version(), ShouldEqual, 1)
				So(errors.Is(cache.Start(ctx), roster.ErrClosed), ShouldBeTrue)
			})
		})
	})

	Convey("Given an apply hook", t, func() {
		var seen []uint64
		cache := roster.NewCache(newFakeProvider(seedSnapshot()), roster.WithOnApply(func(s model.RosterSnapshot) {
			seen = append(seen, s.Version)
		}))
		So(cache.Start(ctx), ShouldBeNil)
		cache.Apply(model.RosterSnapshot{Version: 7})
		So(seen, ShouldResemble, []uint64{1, 7})
	})
}
