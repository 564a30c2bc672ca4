// Package placement onboards unrated competitors through the provisional
// period and resolves the effective MMR they race at.
package placement

import (
	"fmt"
	"math"

	"github.com/okian/ltrc/internal/domain/model"
)

// ReducedTrackScale divides placement scores of short-format events.
const ReducedTrackScale = 2.67

// CeilingSeed is the seed for averages at or above the last threshold.
const CeilingSeed = 7750

type bracket struct {
	below float64
	seed  int
}

// brackets is a step function: the first entry whose bound is strictly
// greater than the average wins.
var brackets = []bracket{
	{10, 500}, {20, 1000}, {30, 1500}, {40, 2000}, {50, 2250}, {60, 2500},
	{70, 3000}, {80, 3250}, {90, 3500}, {100, 4000}, {110, 4250}, {120, 4500},
	{130, 5250}, {140, 5500}, {150, 6250}, {160, 6500}, {170, 7250}, {180, 7500},
}

// SeedFor maps an average placement score to a seed MMR.
func SeedFor(average float64) int {
	for _, b := range brackets {
		if average < b.below {
			return b.seed
		}
	}
	return CeilingSeed
}

// Flags carries the event modifiers that affect placement.
type Flags struct {
	ReducedTrackCount bool
}

// Resolution is the outcome of resolving one competitor for one event.
type Resolution struct {
	// EffectiveMMR is the MMR used in the rating math for this event.
	EffectiveMMR float64
	// Record is the updated placement record; nil for rated competitors.
	Record *model.PlacementRecord
	// Provisional is true while the competitor remains unplaced after this event.
	Provisional bool
	// Blended reports that the previous-season MMR was averaged into the seed.
	Blended bool
}

// Advanced reports whether the resolution moved a placement record.
func (r Resolution) Advanced() bool { return r.Record != nil }

// Tracker resolves competitors against their placement records. It holds no
// state between calls; records are owned by the caller's store.
type Tracker struct{}

// NewTracker returns a Tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Resolve returns the effective MMR of c for an event in which they scored raw.
//
// A competitor with a known MMR is returned unchanged and rec is ignored.
// Otherwise a copy of rec (a fresh record when nil) gets the score appended
// and its completion advanced by one step; rec itself is never modified.
func (t *Tracker) Resolve(c model.Competitor, rec *model.PlacementRecord, raw float64, f Flags) (Resolution, error) {
	if v, ok := c.Current.Value(); ok {
		return Resolution{EffectiveMMR: float64(v)}, nil
	}

	next := rec.Clone()
	if next == nil {
		next = &model.PlacementRecord{Name: c.Name}
	}
	if next.Name == "" {
		next.Name = c.Name
	}
	if err := next.Validate(); err != nil {
		return Resolution{}, err
	}
	step, ok := next.Completion.Next()
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s completed placement but has no MMR",
			model.ErrDataInconsistency, c.Name)
	}

	if f.ReducedTrackCount {
		raw /= ReducedTrackScale
	}
	next.EventScores = append(next.EventScores, raw)
	next.Completion = step

	seed := float64(SeedFor(mean(next.EventScores)))
	blended := false
	if step == model.CompletionTwoThirds {
		if prev, ok := c.PreviousSeason.Value(); ok {
			seed = (seed + float64(prev)) / 2
			blended = true
		}
	}

	return Resolution{
		EffectiveMMR: seed + float64(next.AccumulatedMMR),
		Record:       next,
		Provisional:  step < model.CompletionPlaced,
		Blended:      blended,
	}, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
