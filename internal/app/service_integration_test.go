package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/ltrc/internal/adapters/repository"
	service "github.com/okian/ltrc/internal/app"
	"github.com/okian/ltrc/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a pool of rated competitors and several workers", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		names := make([]string, 8)
		initial := make(map[string]int, len(names))
		competitors := make([]model.Competitor, len(names))
		for i := range names {
			names[i] = fmt.Sprintf("racer-%d", i)
			initial[names[i]] = 4000 + 250*i
			competitors[i] = model.Competitor{Name: names[i], Current: model.Rated(initial[names[i]])}
		}
		store := repository.NewMemoryStore(repository.WithCompetitors(competitors...))

		svc := service.New(
			service.WithConfig(testConfig()),
			service.WithStore(store),
			service.WithWorkerCount(4),
			service.WithQueueSize(256),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When overlapping rooms are submitted from many goroutines", func() {
			const rooms = 60
			var wg sync.WaitGroup
			for r := 0; r < rooms; r++ {
				wg.Add(1)
				go func(r int) {
					defer wg.Done()
					results := make([]model.EventResult, 4)
					for i := range results {
						results[i] = model.EventResult{
							Competitor: names[(r+i*3)%len(names)],
							RawScore:   100 - 10*i,
						}
					}
					_, err := svc.Submit(ctx, model.Event{ID: fmt.Sprintf("room-%d", r), Mode: model.FFA, Results: results})
					if err != nil {
						t.Errorf("submit room %d: %v", r, err)
					}
				}(r)
			}
			wg.Wait()
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every room is rated and no update is lost", func() {
				sums := make(map[string]int, len(names))
				for r := 0; r < rooms; r++ {
					res, err := svc.Result(ctx, fmt.Sprintf("room-%d", r))
					So(err, ShouldBeNil)
					So(res.Status, ShouldEqual, service.StatusRated)
					for _, o := range res.Report.Outcomes {
						sums[o.Name] += o.Delta
					}
				}
				for _, name := range names {
					c, err := store.Competitor(ctx, name)
					So(err, ShouldBeNil)
					So(c.Current, ShouldResemble, model.Rated(initial[name]+sums[name]))
				}
			})
		})
	})
}
