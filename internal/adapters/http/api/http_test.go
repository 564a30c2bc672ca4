package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/ltrc/internal/adapters/http/api"
	"github.com/okian/ltrc/internal/adapters/repository"
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

type mockDependencies struct {
	submitted  []model.Event
	seen       map[string]bool
	submitErr  error
	previewErr error
	results    map[string]service.Result
	views      map[string]service.CompetitorView
	board      []api.Entry
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:    make(map[string]bool),
		results: make(map[string]service.Result),
		views:   make(map[string]service.CompetitorView),
	}
}

func (m *mockDependencies) Submit(_ context.Context, ev model.Event) (service.Receipt, error) {
	if m.submitErr != nil {
		return service.Receipt{}, m.submitErr
	}
	if m.seen[ev.ID] {
		return service.Receipt{EventID: ev.ID, Status: service.StatusRated, Duplicate: true}, nil
	}
	m.seen[ev.ID] = true
	m.submitted = append(m.submitted, ev)
	return service.Receipt{EventID: ev.ID, Status: service.StatusPending}, nil
}

func (m *mockDependencies) Preview(_ context.Context, ev model.Event) (model.Report, error) {
	if m.previewErr != nil {
		return model.Report{}, m.previewErr
	}
	report := model.Report{EventID: ev.ID, Mode: ev.Mode.Name, ScaleConstant: 1200}
	for i, r := range ev.Results {
		report.Outcomes = append(report.Outcomes, model.Outcome{Name: r.Competitor, Standing: i + 1})
	}
	return report, nil
}

func (m *mockDependencies) Result(_ context.Context, id string) (service.Result, error) {
	res, ok := m.results[id]
	if !ok {
		return service.Result{}, fmt.Errorf("%w: %s", service.ErrUnknownEvent, id)
	}
	return res, nil
}

func (m *mockDependencies) Competitor(_ context.Context, name string) (service.CompetitorView, error) {
	v, ok := m.views[name]
	if !ok {
		return service.CompetitorView{}, fmt.Errorf("%w: %s", repository.ErrNotFound, name)
	}
	return v, nil
}

func (m *mockDependencies) Leaderboard(_ context.Context, limit int) ([]api.Entry, error) {
	if limit > len(m.board) {
		return m.board, nil
	}
	return m.board[:limit], nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) Stats(context.Context) map[string]any { return m.stats }

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

const roomBody = `{
	"event_id": "room-1",
	"mode": "2v2",
	"results": [
		{"competitor": "alpha", "raw_score": 50},
		{"competitor": "bravo", "raw_score": 40, "mmr": 5200},
		{"competitor": "charlie", "raw_score": 30, "mmr": "???"},
		{"competitor": "delta", "raw_score": 20}
	],
	"modifiers": {"reduced_loss": true},
	"bonus_accolades": {"delta": 2}
}`

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		stats := &mockStatsProvider{stats: map[string]any{"started": true}}
		h := api.NewServer(deps, stats, api.WithMaxLeaderboardLimit(10)).Handler()

		Convey("Then the health endpoint serves metrics", func() {
			So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint returns the provider's map", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then unsupported methods are rejected", func() {
			So(do(h, http.MethodGet, "/events", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, &mockStatsProvider{}).Handler()

		Convey("When a room is posted", func() {
			w := do(h, http.MethodPost, "/events", roomBody)

			Convey("Then it is accepted and decoded", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"status":"pending"`)
				So(len(deps.submitted), ShouldEqual, 1)

				ev := deps.submitted[0]
				So(ev.Mode, ShouldResemble, model.TwoVs)
				So(ev.Names(), ShouldResemble, []string{"alpha", "bravo", "charlie", "delta"})
				So(ev.Scores(), ShouldResemble, []int{50, 40, 30, 20})
				So(ev.Results[1].MMR, ShouldResemble, model.Rated(5200))
				So(ev.Results[2].MMR.IsUnrated(), ShouldBeTrue)
				So(ev.Modifiers.ReducedLoss, ShouldBeTrue)
				So(ev.Bonus, ShouldResemble, map[string]int{"delta": 2})
			})

			Convey("And posted again", func() {
				again := do(h, http.MethodPost, "/events", roomBody)

				Convey("Then it is acknowledged as a duplicate", func() {
					So(again.Code, ShouldEqual, http.StatusOK)
					So(again.Body.String(), ShouldContainSubstring, `"duplicate":true`)
					So(len(deps.submitted), ShouldEqual, 1)
				})
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/events", "{")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the mode is missing or unknown", func() {
			So(do(h, http.MethodPost, "/events", `{"results":[]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/events", `{"mode":"7v7","results":[]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a result has no score", func() {
			w := do(h, http.MethodPost, "/events", `{"mode":"FFA","results":[{"competitor":"alpha"}]}`)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(w), ShouldEqual, "shape_mismatch")
		})

		Convey("When the service rejects the event", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{model.ErrShapeMismatch, http.StatusUnprocessableEntity, "shape_mismatch"},
				{model.ErrEmptyInput, http.StatusUnprocessableEntity, "empty_input"},
				{model.ErrDataInconsistency, http.StatusUnprocessableEntity, "data_inconsistency"},
				{model.ErrMissingConfig, http.StatusInternalServerError, "missing_config"},
				{service.ErrQueueFull, http.StatusTooManyRequests, "backpressure"},
				{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			}
			for _, c := range cases {
				deps.submitErr = fmt.Errorf("wrapped: %w", c.err)
				w := do(h, http.MethodPost, "/events", roomBody)
				So(w.Code, ShouldEqual, c.status)
				So(errorCode(w), ShouldEqual, c.code)
			}
		})

		Convey("When a room is previewed", func() {
			w := do(h, http.MethodPost, "/events/preview", roomBody)

			Convey("Then the report is returned and nothing is submitted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var report model.Report
				So(json.Unmarshal(w.Body.Bytes(), &report), ShouldBeNil)
				So(report.Mode, ShouldEqual, "2vs2")
				So(len(report.Outcomes), ShouldEqual, 4)
				So(len(deps.submitted), ShouldEqual, 0)
			})
		})

		Convey("When a preview hits missing config", func() {
			deps.previewErr = model.ErrMissingConfig
			w := do(h, http.MethodPost, "/events/preview", roomBody)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When an event result is requested", func() {
			deps.results["room-9"] = service.Result{EventID: "room-9", Status: service.StatusRated}

			Convey("Then a known event is returned", func() {
				w := do(h, http.MethodGet, "/events/room-9", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"rated"`)
			})

			Convey("Then an unknown event is 404", func() {
				So(do(h, http.MethodGet, "/events/nope", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestEventsHandler_FinishingOrder(t *testing.T) {
	Convey("Given an API server over a running rating service", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithCompetitors(
			model.Competitor{Name: "alpha", Current: model.Rated(5000)},
			model.Competitor{Name: "bravo", Current: model.Rated(5200)},
		))
		svc := service.New(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })
		h := api.NewServer(svc, svc).Handler()

		unordered := `{
			"event_id": "room-x",
			"mode": "FFA",
			"results": [
				{"competitor": "alpha", "raw_score": 30},
				{"competitor": "bravo", "raw_score": 50},
				{"competitor": "charlie", "raw_score": 50},
				{"competitor": "delta", "raw_score": 10}
			]
		}`

		Convey("When a room is posted out of finishing order", func() {
			w := do(h, http.MethodPost, "/events", unordered)

			Convey("Then it is rejected and never queued", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(errorCode(w), ShouldEqual, "shape_mismatch")
				So(do(h, http.MethodGet, "/events/room-x", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the same room is previewed", func() {
			w := do(h, http.MethodPost, "/events/preview", unordered)
			So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			So(errorCode(w), ShouldEqual, "shape_mismatch")
		})
	})
}

func TestCompetitorAndLeaderboard(t *testing.T) {
	Convey("Given an API server with stored competitors", t, func() {
		deps := newMockDependencies()
		deps.views["alpha"] = service.CompetitorView{Name: "alpha", MMR: model.Rated(5486), Tier: "Emerald"}
		deps.board = []api.Entry{
			{Rank: 1, Name: "bravo", MMR: 5685, Tier: "Emerald"},
			{Rank: 2, Name: "alpha", MMR: 5486, Tier: "Emerald"},
		}
		h := api.NewServer(deps, &mockStatsProvider{}, api.WithMaxLeaderboardLimit(5)).Handler()

		Convey("Then a competitor can be looked up", func() {
			w := do(h, http.MethodGet, "/competitors/alpha", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"mmr":5486`)
			So(w.Body.String(), ShouldContainSubstring, `"tier":"Emerald"`)
		})

		Convey("Then an unknown competitor is 404", func() {
			w := do(h, http.MethodGet, "/competitors/zulu", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(errorCode(w), ShouldEqual, "not_found")
		})

		Convey("Then the leaderboard honours the limit", func() {
			w := do(h, http.MethodGet, "/leaderboard?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []api.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldResemble, deps.board[:1])
		})

		Convey("Then invalid limits are rejected", func() {
			So(do(h, http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(h, http.MethodGet, "/leaderboard?limit=6", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "limit_exceeded")
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server allowing one write per client", t, func() {
		deps := newMockDependencies()
		h := api.NewServer(deps, &mockStatsProvider{}, api.WithRateLimit(0.001, 1)).Handler()

		first := do(h, http.MethodPost, "/events/preview", roomBody)
		second := do(h, http.MethodPost, "/events/preview", roomBody)

		Convey("Then the second write is throttled", func() {
			So(first.Code, ShouldEqual, http.StatusOK)
			So(second.Code, ShouldEqual, http.StatusTooManyRequests)
			So(errorCode(second), ShouldEqual, "rate_limited")
		})

		Convey("Then reads are not throttled", func() {
			So(do(h, http.MethodGet, "/leaderboard?limit=1", "").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given op-tagged errors", t, func() {
		cause := errors.New("boom")

		Convey("Then WrapKind matches both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind and Wrap carry the op", func() {
			So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
