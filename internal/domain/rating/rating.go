// Package rating implements the symmetric logistic MMR delta and the team
// aggregation and rule modifiers applied to it.
package rating

import (
	"fmt"
	"math"

	"github.com/okian/ltrc/internal/domain/model"
)

// Rating model constants.
const (
	logisticBase  = 11.0
	logisticPivot = 5800.0
	// DefaultScaleConstant is used when no scale constant is configured.
	DefaultScaleConstant = 1200

	reducedTrackGain = 2.67
	reducedTrackLoss = 0.67
	reducedLossScale = 0.5
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScaleConstant sets the global scale constant C. Non-positive values
// are kept so Deltas can report them as missing configuration.
func WithScaleConstant(c int) Option {
	return func(e *Engine) {
		e.scaleC = c
	}
}

// Modifiers are the rule variants applied after team averaging.
type Modifiers struct {
	ReducedTrackCount bool
	ReducedLoss       bool
}

// ModifiersFrom converts event modifiers.
func ModifiersFrom(m model.Modifiers) Modifiers {
	return Modifiers{ReducedTrackCount: m.ReducedTrackCount, ReducedLoss: m.ReducedLoss}
}

// Engine computes per-competitor MMR deltas for one event.
type Engine struct {
	scaleC int
}

// New returns an Engine using DefaultScaleConstant unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{scaleC: DefaultScaleConstant}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScaleConstant returns the configured C.
func (e *Engine) ScaleConstant() int { return e.scaleC }

// ComputeDelta is the raw logistic delta for one competitor:
//
//	C/12 + C / (1 + 11^(-(roomAvg-effective)/5800)) - K
func ComputeDelta(effective, roomAvg float64, k, scaleC int) float64 {
	c := float64(scaleC)
	exp := -(roomAvg - effective) / logisticPivot
	return c/12 + c/(1+math.Pow(logisticBase, exp)) - float64(k)
}

// RoomAverage is the arithmetic mean of the effective MMRs.
func RoomAverage(effective []float64) float64 {
	if len(effective) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range effective {
		sum += v
	}
	return sum / float64(len(effective))
}

// Round rounds half to even.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// NewMMR is the post-event MMR of a competitor.
func NewMMR(effective float64, delta int) int {
	return Round(effective + float64(delta))
}

// Apply scales a delta by the event modifiers: reduced track count first,
// then reduced loss.
func (m Modifiers) Apply(delta float64) float64 {
	if m.ReducedTrackCount {
		if delta > 0 {
			delta *= reducedTrackGain
		} else {
			delta *= reducedTrackLoss
		}
	}
	if m.ReducedLoss && delta < 0 {
		delta *= reducedLossScale
	}
	return delta
}

// Deltas returns the rounded delta for every competitor. effective and k are
// index-aligned in roster order; consecutive teamSize entries form a team and
// every member receives the team's averaged delta.
func (e *Engine) Deltas(effective []float64, k []int, teamSize int, m Modifiers) ([]int, error) {
	if e.scaleC <= 0 {
		return nil, fmt.Errorf("%w: scale constant %d", model.ErrMissingConfig, e.scaleC)
	}
	if len(effective) == 0 {
		return nil, fmt.Errorf("%w: no competitors to rate", model.ErrEmptyInput)
	}
	if len(effective) != len(k) {
		return nil, fmt.Errorf("%w: %d MMRs, %d K-factors", model.ErrShapeMismatch, len(effective), len(k))
	}
	if teamSize < 1 || len(effective)%teamSize != 0 {
		return nil, fmt.Errorf("%w: %d competitors do not split into teams of %d",
			model.ErrShapeMismatch, len(effective), teamSize)
	}

	avg := RoomAverage(effective)
	out := make([]int, len(effective))
	for start := 0; start < len(effective); start += teamSize {
		sum := 0.0
		for i := start; i < start+teamSize; i++ {
			sum += ComputeDelta(effective[i], avg, k[i], e.scaleC)
		}
		delta := Round(m.Apply(sum / float64(teamSize)))
		for i := start; i < start+teamSize; i++ {
			out[i] = delta
		}
	}
	return out, nil
}
