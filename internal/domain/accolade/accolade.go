// Package accolade derives bonus and penalty scores from finishing position
// and upsets relative to seeding.
package accolade

import (
	"fmt"
	"math"

	"github.com/okian/ltrc/internal/domain/model"
)

const (
	dampenBracket  = 1000.0
	dampenStep     = 0.1
	dampenMaxSteps = 10
)

// Config holds the accolade tables of one mode.
type Config struct {
	// Base is indexed by standing: Base[0] is awarded for first place.
	Base []int
	// UpsetWin is added for every higher-seeded team beaten.
	UpsetWin int
	// UpsetLoss is added for every lower-seeded team lost to. Usually negative.
	UpsetLoss int
}

// Compute returns the accolade of every team. teamAvg and teamRanks are
// index-aligned per team.
func Compute(teamAvg []float64, teamRanks []int, cfg Config) ([]int, error) {
	if len(teamAvg) == 0 {
		return nil, fmt.Errorf("%w: no teams", model.ErrEmptyInput)
	}
	if len(teamAvg) != len(teamRanks) {
		return nil, fmt.Errorf("%w: %d team averages, %d standings",
			model.ErrShapeMismatch, len(teamAvg), len(teamRanks))
	}

	net := make([]float64, len(teamAvg))
	for i, r := range teamRanks {
		if r < 1 || r > len(cfg.Base) {
			return nil, fmt.Errorf("%w: no base accolade for standing %d", model.ErrMissingConfig, r)
		}
		net[i] = float64(cfg.Base[r-1])
	}

	for i := range teamAvg {
		for j := range teamAvg {
			if teamAvg[i] > teamAvg[j] && teamRanks[i] > teamRanks[j] {
				net[i] += float64(cfg.UpsetLoss)
				net[j] += float64(cfg.UpsetWin)
			}
		}
	}

	maxAvg := teamAvg[0]
	for _, a := range teamAvg[1:] {
		maxAvg = math.Max(maxAvg, a)
	}

	out := make([]int, len(net))
	for i, v := range net {
		if v < 0 {
			v *= Dampening(maxAvg, teamAvg[i])
		}
		out[i] = int(math.RoundToEven(v))
	}
	return out, nil
}

// Dampening is the factor applied to a negative accolade of a team averaging
// avg in a room whose strongest team averages maxAvg.
func Dampening(maxAvg, avg float64) float64 {
	steps := math.Floor((maxAvg - avg) / dampenBracket)
	steps = math.Max(0, math.Min(dampenMaxSteps, steps))
	return 1 - dampenStep*steps
}

// Broadcast expands per-team accolades to members and truncates the result to
// exactly roster entries. Missing trailing members receive zero.
func Broadcast(team []int, teamSize, roster int) []int {
	out := make([]int, roster)
	for i := range out {
		if t := i / teamSize; teamSize > 0 && t < len(team) {
			out[i] = team[t]
		}
	}
	return out
}

// AddBonus adds manual per-competitor bonus accolades in place. names and
// accolades are index-aligned.
func AddBonus(accolades []int, names []string, bonus map[string]int) {
	for i, name := range names {
		if i < len(accolades) {
			accolades[i] += bonus[name]
		}
	}
}
