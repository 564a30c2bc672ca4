package model

import (
	"fmt"
	"strings"
)

// PlacementEvents is the length of the provisional period.
const PlacementEvents = 3

// Competitor is a roster member. Names are unique within a tournament.
type Competitor struct {
	Name           string `json:"name"`
	Current        MMR    `json:"mmr"`
	PreviousSeason MMR    `json:"previous_season_mmr"`
}

// Completion is the provisional-period progress of an unrated competitor.
type Completion int

// Completion steps; None means no placement event has been recorded yet.
const (
	CompletionNone Completion = iota
	CompletionOneThird
	CompletionTwoThirds
	CompletionPlaced
)

func (c Completion) String() string {
	switch c {
	case CompletionNone:
		return ""
	case CompletionOneThird, CompletionTwoThirds, CompletionPlaced:
		return fmt.Sprintf("%d/%d", int(c), PlacementEvents)
	default:
		return fmt.Sprintf("Completion(%d)", int(c))
	}
}

// Next returns the following step. Placed has no successor.
func (c Completion) Next() (Completion, bool) {
	if c >= CompletionPlaced || c < CompletionNone {
		return c, false
	}
	return c + 1, true
}

// ParseCompletion reads "", "1/3", "2/3" or "3/3".
func ParseCompletion(s string) (Completion, error) {
	switch strings.TrimSpace(s) {
	case "":
		return CompletionNone, nil
	case "1/3":
		return CompletionOneThird, nil
	case "2/3":
		return CompletionTwoThirds, nil
	case "3/3":
		return CompletionPlaced, nil
	}
	return CompletionNone, fmt.Errorf("%w: completion %q", ErrDataInconsistency, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Completion) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Completion) UnmarshalText(b []byte) error {
	parsed, err := ParseCompletion(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PlacementRecord tracks an unrated competitor through the provisional period.
// Invariant: len(EventScores) == int(Completion).
type PlacementRecord struct {
	Name           string     `json:"name"`
	Completion     Completion `json:"completion"`
	EventScores    []float64  `json:"event_scores"`
	AccumulatedMMR int        `json:"accumulated_mmr"`
}

// Validate checks the score-count invariant.
func (r *PlacementRecord) Validate() error {
	if r == nil {
		return nil
	}
	if len(r.EventScores) != int(r.Completion) {
		return fmt.Errorf("%w: %s has %d placement scores at completion %q",
			ErrDataInconsistency, r.Name, len(r.EventScores), r.Completion)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (r *PlacementRecord) Clone() *PlacementRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.EventScores = append([]float64(nil), r.EventScores...)
	return &out
}
