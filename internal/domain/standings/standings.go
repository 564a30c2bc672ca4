// Package standings turns raw scores into tie-aware finishing positions and
// the K-factors those positions carry.
package standings

import (
	"fmt"

	"github.com/okian/ltrc/internal/domain/model"
)

// UnitScores sums consecutive groups of teamSize scores. With a team size of
// one the scores are returned unchanged.
func UnitScores(scores []int, teamSize int) ([]int, error) {
	if teamSize < 1 {
		return nil, fmt.Errorf("%w: team size %d", model.ErrUnknownMode, teamSize)
	}
	if len(scores)%teamSize != 0 {
		return nil, fmt.Errorf("%w: %d scores do not split into teams of %d",
			model.ErrShapeMismatch, len(scores), teamSize)
	}
	units := make([]int, 0, len(scores)/teamSize)
	for i := 0; i < len(scores); i += teamSize {
		sum := 0
		for _, s := range scores[i : i+teamSize] {
			sum += s
		}
		units = append(units, sum)
	}
	return units, nil
}

// Ordered reports a shape mismatch unless units are listed in finishing
// order, best score first.
func Ordered(units []int) error {
	for i := 1; i < len(units); i++ {
		if units[i] > units[i-1] {
			return fmt.Errorf("%w: unit %d scored %d after unit %d scored %d; results must be in finishing order",
				model.ErrShapeMismatch, i+1, units[i], i, units[i-1])
		}
	}
	return nil
}

// Competition ranks units in the order given using standard competition
// ranking ("1224"): a unit tying the one before it shares its rank, and the
// next distinct score takes its 1-based position. Units must already be in
// finishing order (see Ordered); only equality with the previous unit is
// considered.
func Competition(units []int) []int {
	ranks := make([]int, len(units))
	for i := range units {
		if i > 0 && units[i] == units[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// Expand broadcasts unit ranks back to every member.
func Expand(unitRanks []int, teamSize int) []int {
	out := make([]int, 0, len(unitRanks)*teamSize)
	for _, r := range unitRanks {
		for j := 0; j < teamSize; j++ {
			out = append(out, r)
		}
	}
	return out
}

// Rank returns the per-unit and per-competitor standings for a roster.
func Rank(scores []int, teamSize int) (unitRanks, memberRanks []int, err error) {
	if len(scores) == 0 {
		return nil, nil, fmt.Errorf("%w: no scores found", model.ErrEmptyInput)
	}
	units, err := UnitScores(scores, teamSize)
	if err != nil {
		return nil, nil, err
	}
	if err := Ordered(units); err != nil {
		return nil, nil, err
	}
	unitRanks = Competition(units)
	return unitRanks, Expand(unitRanks, teamSize), nil
}

// KFactors looks up table[rank-1] for each rank. A table too short for a
// standing is a configuration error.
func KFactors(ranks, table []int) ([]int, error) {
	out := make([]int, len(ranks))
	for i, r := range ranks {
		if r < 1 || r > len(table) {
			return nil, fmt.Errorf("%w: no K-factor for standing %d (table has %d entries)",
				model.ErrMissingConfig, r, len(table))
		}
		out[i] = table[r-1]
	}
	return out, nil
}
