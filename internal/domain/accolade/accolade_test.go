package accolade_test

import (
	"errors"
	"testing"

	"github.com/okian/ltrc/internal/domain/accolade"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCompute(t *testing.T) {
	cfg := accolade.Config{Base: []int{10, 8, 6, 5}, UpsetWin: 1, UpsetLoss: -1}

	convey.Convey("Given a room that finished in seed order", t, func() {
		out, err := accolade.Compute([]float64{6000, 5000, 4000, 3000}, []int{1, 2, 3, 4}, cfg)

		convey.Convey("Then only the base table applies", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldResemble, []int{10, 8, 6, 5})
		})
	})

	convey.Convey("Given an upset over every stronger team", t, func() {
		out, err := accolade.Compute([]float64{3000, 6000, 5000, 4000}, []int{1, 2, 3, 4}, cfg)

		convey.Convey("Then every pair is scanned, not only adjacent ranks", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldResemble, []int{13, 7, 5, 4})
		})
	})

	convey.Convey("Given a negative net accolade", t, func() {
		zero := accolade.Config{Base: []int{0, 0, 0}, UpsetWin: 0, UpsetLoss: -10}
		out, err := accolade.Compute([]float64{1000, 6000, 3500}, []int{1, 2, 3}, zero)

		convey.Convey("Then the strongest team keeps the full penalty", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(out[1], convey.ShouldEqual, -10)
		})

		convey.Convey("Then weaker teams are dampened by the bracket gap", func() {
			// 2 brackets below the top: -10 * 0.8.
			convey.So(out[2], convey.ShouldEqual, -8)
			convey.So(out[0], convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given invalid input", t, func() {
		_, err := accolade.Compute([]float64{1, 2}, []int{1}, cfg)
		convey.So(errors.Is(err, model.ErrShapeMismatch), convey.ShouldBeTrue)

		_, err = accolade.Compute(nil, nil, cfg)
		convey.So(errors.Is(err, model.ErrEmptyInput), convey.ShouldBeTrue)

		_, err = accolade.Compute([]float64{1, 2}, []int{1, 5}, cfg)
		convey.So(errors.Is(err, model.ErrMissingConfig), convey.ShouldBeTrue)
	})
}

func TestDampening(t *testing.T) {
	convey.Convey("Dampening floors at zero beyond ten brackets", t, func() {
		convey.So(accolade.Dampening(5000, 5000), convey.ShouldAlmostEqual, 1, 1e-9)
		convey.So(accolade.Dampening(5000, 4001), convey.ShouldAlmostEqual, 1, 1e-9)
		convey.So(accolade.Dampening(5000, 4000), convey.ShouldAlmostEqual, 0.9, 1e-9)
		convey.So(accolade.Dampening(20000, 0), convey.ShouldAlmostEqual, 0, 1e-9)
	})
}

func TestBroadcast(t *testing.T) {
	convey.Convey("Given team accolades", t, func() {
		convey.Convey("Then members inherit their team's value", func() {
			convey.So(accolade.Broadcast([]int{4, -1}, 2, 4), convey.ShouldResemble, []int{4, 4, -1, -1})
		})

		convey.Convey("Then the result is truncated to the roster", func() {
			convey.So(accolade.Broadcast([]int{4, -1, 2}, 2, 5), convey.ShouldResemble, []int{4, 4, -1, -1, 2})
		})

		convey.Convey("Then bonus accolades are added per member", func() {
			acc := []int{4, 4, -1, -1}
			accolade.AddBonus(acc, []string{"a", "b", "c", "d"}, map[string]int{"b": 2, "d": -3})
			convey.So(acc, convey.ShouldResemble, []int{4, 6, -1, -4})
		})
	})
}
