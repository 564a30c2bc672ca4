// Package ranktable maps MMR to named tiers and derives rank-change display.
package ranktable

import "github.com/okian/ltrc/internal/domain/model"

// Tier is a named MMR band. The last tier has no upper bound.
type Tier struct {
	Name       string
	LowerBound int
}

// tiers is ordered by LowerBound. Monarch spans four 1000-point brackets.
var tiers = []Tier{
	{Name: "Tin", LowerBound: 0},
	{Name: "Bronze", LowerBound: 2000},
	{Name: "Silver", LowerBound: 3000},
	{Name: "Gold", LowerBound: 4000},
	{Name: "Emerald", LowerBound: 5000},
	{Name: "Sapphire", LowerBound: 6000},
	{Name: "Ruby", LowerBound: 7000},
	{Name: "Duke", LowerBound: 8000},
	{Name: "Master", LowerBound: 9000},
	{Name: "Grandmaster", LowerBound: 10000},
	{Name: "Monarch", LowerBound: 11000},
	{Name: "Sovereign", LowerBound: 15000},
}

// Tiers returns a copy of the tier table.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}

// TierOf returns the tier containing mmr. Values below zero fall into the
// first tier.
func TierOf(mmr int) Tier {
	return tiers[indexOf(mmr)]
}

func indexOf(mmr int) int {
	idx := 0
	for i, t := range tiers {
		if mmr >= t.LowerBound {
			idx = i
		}
	}
	return idx
}

// Movement derives the rank-change cell for one competitor.
//
// provisional is true while the competitor is still inside the placement
// period after this event; completion is then the step just reached. A
// competitor without a previous rating who is resolved this event counts as
// promoted. Tiers are compared by name, so moving between the brackets of a
// multi-bracket tier is not a change.
func Movement(prev model.MMR, next int, provisional bool, completion model.Completion) model.TierChange {
	if provisional {
		return model.TierChange{Direction: model.DirectionUnplaced, Completion: completion}
	}
	nextTier := TierOf(next)
	old, ok := prev.Value()
	if !ok {
		return model.TierChange{Direction: model.DirectionUp, Tier: nextTier.Name}
	}
	oldIdx, nextIdx := indexOf(old), indexOf(next)
	switch {
	case oldIdx == nextIdx:
		return model.TierChange{Direction: model.DirectionNone}
	case nextIdx > oldIdx:
		return model.TierChange{Direction: model.DirectionUp, Tier: nextTier.Name}
	default:
		return model.TierChange{Direction: model.DirectionDown, Tier: nextTier.Name}
	}
}
