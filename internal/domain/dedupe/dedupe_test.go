package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/ltrc/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new ledger", t, func() {
		l := dedupe.NewLedger()
		So(l.Len(), ShouldEqual, 0)

		Convey("When an event ID is claimed twice", func() {
			first := l.Claim(ctx, "event-1")
			second := l.Claim(ctx, "event-1")

			Convey("Then only the second claim is a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(l.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a claim is released", func() {
			l.Claim(ctx, "event-1")
			l.Release(ctx, "event-1")

			Convey("Then the ID can be claimed again", func() {
				So(l.Len(), ShouldEqual, 0)
				So(l.Claim(ctx, "event-1"), ShouldBeFalse)
			})
		})

		Convey("When releasing an unknown ID", func() {
			l.Release(ctx, "missing")
			So(l.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a ledger with a capacity of three", t, func() {
		l := dedupe.NewLedger(dedupe.WithCapacity(3))
		for _, id := range []string{"a", "b", "c", "d"} {
			So(l.Claim(ctx, id), ShouldBeFalse)
		}

		Convey("Then the oldest ID is forgotten", func() {
			So(l.Len(), ShouldEqual, 3)
			So(l.Claim(ctx, "d"), ShouldBeTrue)
			So(l.Claim(ctx, "c"), ShouldBeTrue)
			So(l.Claim(ctx, "a"), ShouldBeFalse)
		})

		Convey("Then a released slot does not evict a newer claim", func() {
			l.Release(ctx, "b")
			So(l.Claim(ctx, "e"), ShouldBeFalse)
			So(l.Claim(ctx, "d"), ShouldBeTrue)
			So(l.Claim(ctx, "e"), ShouldBeTrue)
		})
	})

	Convey("Given an unbounded ledger", t, func() {
		l := dedupe.NewLedger(dedupe.WithCapacity(0))
		for i := 0; i < 1000; i++ {
			l.Claim(ctx, fmt.Sprintf("event-%d", i))
		}
		So(l.Len(), ShouldEqual, 1000)
		So(l.Claim(ctx, "event-0"), ShouldBeTrue)
	})
}

func TestLedgerConcurrency(t *testing.T) {
	Convey("Given concurrent claims of the same IDs", t, func() {
		l := dedupe.NewLedger(dedupe.WithCapacity(1000))
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !l.Claim(context.Background(), fmt.Sprintf("event-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each ID is fresh exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(l.Len(), ShouldEqual, 100)
		})
	})
}
