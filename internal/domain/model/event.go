// Package model contains domain models passed between layers.
package model

import "fmt"

// Modifiers are rule variants that alter placement scores or deltas.
type Modifiers struct {
	// ReducedTrackCount marks a short-format event: placement scores are
	// scaled down and deltas are scaled asymmetrically.
	ReducedTrackCount bool `json:"reduced_track_count"`
	// ReducedLoss ("200cc") halves negative deltas.
	ReducedLoss bool `json:"reduced_loss"`
}

// EventResult is one roster row: a competitor, their raw score and the MMR
// the roster source shows for them.
type EventResult struct {
	Competitor string `json:"competitor"`
	RawScore   int    `json:"raw_score"`
	MMR        MMR    `json:"mmr"`
}

// Event is a full room result. Results are ordered by finishing position and,
// for team modes, grouped so that consecutive TeamSize rows form one team.
type Event struct {
	ID        string         `json:"event_id"`
	Mode      TeamMode       `json:"-"`
	Results   []EventResult  `json:"results"`
	Modifiers Modifiers      `json:"modifiers"`
	Bonus     map[string]int `json:"bonus_accolades,omitempty"`
}

// Names returns the roster in order.
func (e Event) Names() []string {
	out := make([]string, len(e.Results))
	for i, r := range e.Results {
		out[i] = r.Competitor
	}
	return out
}

// Scores returns the raw scores in roster order.
func (e Event) Scores() []int {
	out := make([]int, len(e.Results))
	for i, r := range e.Results {
		out[i] = r.RawScore
	}
	return out
}

// NewEvent assembles an event from the three index-aligned columns a roster
// source provides. Misaligned columns are a shape error.
func NewEvent(id string, mode TeamMode, names []string, scores []int, mmrs []MMR) (Event, error) {
	if len(names) == 0 {
		return Event{}, fmt.Errorf("%w: no racers found", ErrEmptyInput)
	}
	if len(names) != len(scores) || len(names) != len(mmrs) {
		return Event{}, fmt.Errorf("%w: %d racers, %d scores, %d mmrs",
			ErrShapeMismatch, len(names), len(scores), len(mmrs))
	}
	ev := Event{ID: id, Mode: mode, Results: make([]EventResult, len(names))}
	for i := range names {
		ev.Results[i] = EventResult{Competitor: names[i], RawScore: scores[i], MMR: mmrs[i]}
	}
	return ev, nil
}

// Direction of a tier change.
type Direction string

// Rank-change display states.
const (
	DirectionUp       Direction = "up"
	DirectionDown     Direction = "down"
	DirectionNone     Direction = "none"
	DirectionUnplaced Direction = "unplaced"
)

// TierChange is the rank-change cell shown next to a competitor.
type TierChange struct {
	Direction Direction `json:"direction"`
	// Tier is set when Direction is up or down.
	Tier string `json:"tier,omitempty"`
	// Completion is set when Direction is unplaced.
	Completion Completion `json:"completion,omitempty"`
}

// Arrow returns the glyph used by sheet and console renderers.
func (t TierChange) Arrow() string {
	switch t.Direction {
	case DirectionUp:
		return "▲"
	case DirectionDown:
		return "▼"
	default:
		return "-"
	}
}

// Label returns the text of the rank-change cell.
func (t TierChange) Label() string {
	switch t.Direction {
	case DirectionUp, DirectionDown:
		return t.Tier
	case DirectionUnplaced:
		return t.Completion.String()
	default:
		return ""
	}
}

// Outcome is the per-competitor output record of one event.
type Outcome struct {
	Name         string     `json:"name"`
	RawScore     int        `json:"raw_score"`
	Standing     int        `json:"standing"`
	KFactor      int        `json:"k_factor"`
	PreviousMMR  MMR        `json:"previous_mmr"`
	EffectiveMMR float64    `json:"effective_mmr"`
	Delta        int        `json:"mmr_delta"`
	NewMMR       int        `json:"new_mmr"`
	Change       TierChange `json:"tier_change"`
	Completion   Completion `json:"completion"`
	Provisional  bool       `json:"provisional"`
	Winner       bool       `json:"winner"`
	Accolade     int        `json:"accolade"`
}

// Report is the full result set of one event.
type Report struct {
	EventID       string    `json:"event_id"`
	Mode          string    `json:"mode"`
	RoomAverage   float64   `json:"room_average_mmr"`
	ScaleConstant int       `json:"scale_constant"`
	Outcomes      []Outcome `json:"outcomes"`
}

// RatingUpdate sets a placed competitor's MMR.
type RatingUpdate struct {
	Name string
	MMR  int
}

// Batch is everything an event writes back. It is applied atomically.
type Batch struct {
	EventID string
	// Registrations are names seen for the first time; they are stored unrated.
	Registrations []string
	Ratings       []RatingUpdate
	Placements    []PlacementRecord
}

// Empty reports whether the batch carries no writes.
func (b Batch) Empty() bool {
	return len(b.Registrations) == 0 && len(b.Ratings) == 0 && len(b.Placements) == 0
}
