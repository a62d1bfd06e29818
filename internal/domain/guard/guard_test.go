package guard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/pooldraft/internal/domain/guard"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryGuard(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new guard", t, func() {
		g := guard.NewInMemoryGuard()
		So(g.Size(), ShouldEqual, 0)

		Convey("When acquiring a free key", func() {
			err := g.Acquire(ctx, "event-1")

			Convey("Then it is held", func() {
				So(err, ShouldBeNil)
				So(g.Held("event-1"), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And a second acquire is rejected", func() {
				err := g.Acquire(ctx, "event-1")
				So(errors.Is(err, guard.ErrInFlight), ShouldBeTrue)
				So(g.Size(), ShouldEqual, 1)
			})

			Convey("And other keys are independent", func() {
				So(g.Acquire(ctx, "event-2"), ShouldBeNil)
				So(g.Size(), ShouldEqual, 2)
			})

			Convey("And after release it can be acquired again", func() {
				g.Release(ctx, "event-1")
				So(g.Held("event-1"), ShouldBeFalse)
				So(g.Acquire(ctx, "event-1"), ShouldBeNil)
			})
		})

		Convey("When releasing an unknown key", func() {
			g.Release(ctx, "nope")
			So(g.Size(), ShouldEqual, 0)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := g.Acquire(cctx, "event-1")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(g.Held("event-1"), ShouldBeFalse)
		})
	})

	Convey("Given a bounded guard", t, func() {
		g := guard.NewInMemoryGuard(guard.WithMaxSize(2))
		So(g.Acquire(ctx, "a"), ShouldBeNil)
		So(g.Acquire(ctx, "b"), ShouldBeNil)

		Convey("Then a third key exceeds capacity", func() {
			So(errors.Is(g.Acquire(ctx, "c"), guard.ErrCapacity), ShouldBeTrue)
		})
	})

	Convey("Given many goroutines racing for one key", t, func() {
		g := guard.NewInMemoryGuard()
		var wins atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if g.Acquire(ctx, "event-1") == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one wins", func() {
			So(wins.Load(), ShouldEqual, 1)
		})
	})

	Convey("Given keys acquired concurrently", t, func() {
		g := guard.NewInMemoryGuard(guard.WithMaxSize(0))
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("event-%d", i)
				_ = g.Acquire(ctx, key)
				g.Release(ctx, key)
			}(i)
		}
		wg.Wait()
		So(g.Size(), ShouldEqual, 0)
	})
}
