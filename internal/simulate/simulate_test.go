package simulate

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/ltrc/internal/adapters/http/api"
	service "github.com/okian/ltrc/internal/app"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := newGenerator(7, 20)

		Convey("Then the roster has distinct names", func() {
			seen := map[string]bool{}
			for _, n := range gen.roster {
				So(seen[n], ShouldBeFalse)
				seen[n] = true
			}
			So(len(seen), ShouldEqual, 20)
		})

		Convey("Then rooms draw distinct racers with bounded scores", func() {
			for _, r := range gen.rooms(model.TwoVs, 8, 10) {
				So(r.Mode, ShouldEqual, "2vs2")
				So(r.EventID, ShouldNotBeEmpty)
				So(len(r.Results), ShouldEqual, 8)
				names := map[string]bool{}
				for _, res := range r.Results {
					So(names[res.Competitor], ShouldBeFalse)
					names[res.Competitor] = true
					So(res.RawScore, ShouldBeBetweenOrEqual, 0, maxScore)
				}
			}
		})

		Convey("Then teams are listed in finishing order", func() {
			for _, r := range gen.rooms(model.TwoVs, 8, 10) {
				prev := -1
				for i := 0; i < len(r.Results); i += 2 {
					sum := r.Results[i].RawScore + r.Results[i+1].RawScore
					if prev >= 0 {
						So(sum, ShouldBeLessThanOrEqualTo, prev)
					}
					prev = sum
				}
			}
		})
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("Given simulation configs", t, func() {
		cases := []Config{
			{BaseURL: "http://x", Mode: "9v9"},
			{BaseURL: "http://x", Mode: "2v2", RoomSize: 5},
			{BaseURL: "http://x", RoomSize: 12, Racers: 6},
			{},
		}
		for _, cfg := range cases {
			_, err := Run(context.Background(), cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		}
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running rating service", t, func() {
		svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(256))
		So(svc.Start(context.Background()), ShouldBeNil)
		srv := httptest.NewServer(api.NewServer(svc, svc).Handler())
		defer srv.Close()
		defer func() { _ = svc.Stop(context.Background()) }()

		Convey("When a season is simulated", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:      srv.URL,
				Rooms:        40,
				Racers:       12,
				RoomSize:     6,
				Workers:      4,
				Wait:         30 * time.Second,
				PollInterval: 10 * time.Millisecond,
				Seed:         42,
			})

			Convey("Then every room is rated and the leaderboard checks out", func() {
				So(err, ShouldBeNil)
				So(stats.RoomsGenerated, ShouldEqual, 40)
				So(stats.RoomsAccepted, ShouldEqual, 40)
				So(stats.RoomsRejected, ShouldEqual, 0)
				So(stats.RoomsRated, ShouldEqual, 40)
				So(stats.RoomsFailed, ShouldEqual, 0)
				So(stats.LeaderboardEntries, ShouldBeGreaterThan, 0)
			})
		})
	})
}
