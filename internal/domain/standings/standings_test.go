package standings_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/domain/standings"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompetition(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []int
	}{
		{name: "distinct", scores: []int{100, 90, 80, 70}, want: []int{1, 2, 3, 4}},
		{name: "leading tie skips a rank", scores: []int{50, 50, 30}, want: []int{1, 1, 3}},
		{name: "triple tie", scores: []int{50, 50, 50, 10}, want: []int{1, 1, 1, 4}},
		{name: "tie in the middle", scores: []int{90, 70, 70, 60, 60}, want: []int{1, 2, 2, 4, 4}},
		{name: "single", scores: []int{12}, want: []int{1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, standings.Competition(tc.scores)); diff != "" {
				t.Errorf("Competition(%v) mismatch (-want +got):\n%s", tc.scores, diff)
			}
		})
	}
}

func TestOrdered(t *testing.T) {
	tests := []struct {
		name  string
		units []int
		ok    bool
	}{
		{name: "descending", units: []int{90, 70, 10}, ok: true},
		{name: "ties", units: []int{50, 50, 50, 10}, ok: true},
		{name: "single", units: []int{3}, ok: true},
		{name: "empty", ok: true},
		{name: "loser listed first", units: []int{30, 50, 50, 10}},
		{name: "late climber", units: []int{90, 70, 80}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := standings.Ordered(tc.units)
			if tc.ok && err != nil {
				t.Fatalf("Ordered(%v) = %v, want nil", tc.units, err)
			}
			if !tc.ok && !errors.Is(err, model.ErrShapeMismatch) {
				t.Fatalf("Ordered(%v) = %v, want shape mismatch", tc.units, err)
			}
		})
	}
}

func TestRank(t *testing.T) {
	Convey("Given a 2vs2 roster", t, func() {
		scores := []int{60, 40, 70, 30, 55, 20}

		Convey("When ranking", func() {
			units, members, err := standings.Rank(scores, 2)

			Convey("Then team sums are ranked and broadcast to members", func() {
				So(err, ShouldBeNil)
				So(units, ShouldResemble, []int{1, 1, 3})
				So(members, ShouldResemble, []int{1, 1, 1, 1, 3, 3})
			})
		})

		Convey("When the roster does not split into teams", func() {
			_, _, err := standings.Rank(scores[:5], 2)

			Convey("Then it is a shape mismatch", func() {
				So(errors.Is(err, model.ErrShapeMismatch), ShouldBeTrue)
			})
		})

		Convey("When there are no scores", func() {
			_, _, err := standings.Rank(nil, 2)
			So(errors.Is(err, model.ErrEmptyInput), ShouldBeTrue)
		})

		Convey("When a later team outscores an earlier one", func() {
			_, _, err := standings.Rank([]int{30, 20, 60, 40, 55, 20}, 2)

			Convey("Then the roster is rejected as out of order", func() {
				So(errors.Is(err, model.ErrShapeMismatch), ShouldBeTrue)
			})
		})
	})

	Convey("Given a 6vs6 roster", t, func() {
		scores := make([]int, 12)
		for i := range scores {
			scores[i] = 12 - i
		}
		units, members, err := standings.Rank(scores, 6)

		So(err, ShouldBeNil)
		So(units, ShouldResemble, []int{1, 2})
		So(members[:6], ShouldResemble, []int{1, 1, 1, 1, 1, 1})
		So(members[6:], ShouldResemble, []int{2, 2, 2, 2, 2, 2})
	})
}

func TestKFactors(t *testing.T) {
	Convey("Given a K-table", t, func() {
		table := []int{100, 80, 60, 40}

		Convey("Then each standing maps to table[rank-1]", func() {
			k, err := standings.KFactors([]int{1, 2, 3, 4}, table)
			So(err, ShouldBeNil)
			So(k, ShouldResemble, []int{100, 80, 60, 40})

			k, err = standings.KFactors([]int{1, 1, 3}, table)
			So(err, ShouldBeNil)
			So(k, ShouldResemble, []int{100, 100, 60})
		})

		Convey("Then a standing past the table is a missing config", func() {
			_, err := standings.KFactors([]int{5}, table)
			So(errors.Is(err, model.ErrMissingConfig), ShouldBeTrue)
		})
	})
}
