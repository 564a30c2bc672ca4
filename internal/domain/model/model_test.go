package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/ltrc/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMMR(t *testing.T) {
	convey.Convey("Given MMR values read from a roster", t, func() {
		convey.Convey("When parsing markers and numbers", func() {
			for _, s := range []string{"", " ??? ", "Unrated"} {
				m, err := model.ParseMMR(s)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.IsUnrated(), convey.ShouldBeTrue)
			}

			m, err := model.ParseMMR("5120")
			convey.So(err, convey.ShouldBeNil)
			v, ok := m.Value()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 5120)

			m, err = model.ParseMMR("4999.7")
			convey.So(err, convey.ShouldBeNil)
			convey.So(m, convey.ShouldResemble, model.Rated(4999))

			_, err = model.ParseMMR("fast")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Then unrated values print as the marker", func() {
			convey.So(model.Unrated.String(), convey.ShouldEqual, model.UnratedMarker)
			convey.So(model.Rated(12).String(), convey.ShouldEqual, "12")
		})

		convey.Convey("Then JSON keeps the unrated state", func() {
			b, err := json.Marshal(model.Competitor{Name: "a", Current: model.Rated(3000)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"name":"a","mmr":3000,"previous_season_mmr":"unrated"}`)

			var c model.Competitor
			convey.So(json.Unmarshal([]byte(`{"name":"b","mmr":null,"previous_season_mmr":"???"}`), &c), convey.ShouldBeNil)
			convey.So(c.Current.IsUnrated(), convey.ShouldBeTrue)
			convey.So(c.PreviousSeason.IsUnrated(), convey.ShouldBeTrue)
		})
	})
}

func TestTeamMode(t *testing.T) {
	convey.Convey("Given mode names", t, func() {
		for _, name := range []string{"ffa", "2vs2", "2V2", " 6vs6 "} {
			_, err := model.ParseMode(name)
			convey.So(err, convey.ShouldBeNil)
		}
		m, _ := model.ParseMode("3v3")
		convey.So(m, convey.ShouldResemble, model.ThreeVs)

		_, err := model.ParseMode("7vs7")
		convey.So(errors.Is(err, model.ErrUnknownMode), convey.ShouldBeTrue)
	})

	convey.Convey("Given a roster size", t, func() {
		n, err := model.SixVs.Units(12)
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 2)

		_, err = model.FourVs.Units(10)
		convey.So(errors.Is(err, model.ErrShapeMismatch), convey.ShouldBeTrue)
	})
}

func TestCompletion(t *testing.T) {
	convey.Convey("Given completion steps", t, func() {
		c := model.CompletionNone
		var seen []string
		for {
			next, ok := c.Next()
			if !ok {
				break
			}
			c = next
			seen = append(seen, c.String())
		}
		convey.So(seen, convey.ShouldResemble, []string{"1/3", "2/3", "3/3"})

		parsed, err := model.ParseCompletion("2/3")
		convey.So(err, convey.ShouldBeNil)
		convey.So(parsed, convey.ShouldEqual, model.CompletionTwoThirds)

		_, err = model.ParseCompletion("4/3")
		convey.So(errors.Is(err, model.ErrDataInconsistency), convey.ShouldBeTrue)
	})

	convey.Convey("Given a placement record", t, func() {
		rec := &model.PlacementRecord{Name: "x", Completion: model.CompletionTwoThirds, EventScores: []float64{40, 30}}
		convey.So(rec.Validate(), convey.ShouldBeNil)

		clone := rec.Clone()
		clone.EventScores[0] = 1
		convey.So(rec.EventScores[0], convey.ShouldEqual, 40.0)

		rec.EventScores = rec.EventScores[:1]
		convey.So(errors.Is(rec.Validate(), model.ErrDataInconsistency), convey.ShouldBeTrue)
	})
}

func TestNewEvent(t *testing.T) {
	convey.Convey("Given roster columns", t, func() {
		names := []string{"a", "b"}
		mmrs := []model.MMR{model.Rated(1), model.Unrated}

		ev, err := model.NewEvent("ev-1", model.FFA, names, []int{90, 80}, mmrs)
		convey.So(err, convey.ShouldBeNil)
		convey.So(ev.Names(), convey.ShouldResemble, names)
		convey.So(ev.Scores(), convey.ShouldResemble, []int{90, 80})

		_, err = model.NewEvent("ev-2", model.FFA, names, []int{90}, mmrs)
		convey.So(errors.Is(err, model.ErrShapeMismatch), convey.ShouldBeTrue)

		_, err = model.NewEvent("ev-3", model.FFA, nil, nil, nil)
		convey.So(errors.Is(err, model.ErrEmptyInput), convey.ShouldBeTrue)
	})
}

func TestTierChange(t *testing.T) {
	convey.Convey("Given rank-change cells", t, func() {
		up := model.TierChange{Direction: model.DirectionUp, Tier: "Gold"}
		convey.So(up.Arrow(), convey.ShouldEqual, "▲")
		convey.So(up.Label(), convey.ShouldEqual, "Gold")

		unplaced := model.TierChange{Direction: model.DirectionUnplaced, Completion: model.CompletionOneThird}
		convey.So(unplaced.Arrow(), convey.ShouldEqual, "-")
		convey.So(unplaced.Label(), convey.ShouldEqual, "1/3")

		convey.So(model.TierChange{Direction: model.DirectionNone}.Label(), convey.ShouldEqual, "")
	})
}
