package model

import (
	"fmt"
	"strings"
)

// TeamMode describes how a room is split into scoring units.
// All per-mode behaviour is derived from TeamSize; MaxUnits is the highest
// achievable standing and therefore the minimum K-table length.
type TeamMode struct {
	Name     string
	TeamSize int
	MaxUnits int
}

// Supported modes.
var (
	FFA     = TeamMode{Name: "FFA", TeamSize: 1, MaxUnits: 12}
	TwoVs   = TeamMode{Name: "2vs2", TeamSize: 2, MaxUnits: 6}
	ThreeVs = TeamMode{Name: "3vs3", TeamSize: 3, MaxUnits: 4}
	FourVs  = TeamMode{Name: "4vs4", TeamSize: 4, MaxUnits: 3}
	FiveVs  = TeamMode{Name: "5vs5", TeamSize: 5, MaxUnits: 2}
	SixVs   = TeamMode{Name: "6vs6", TeamSize: 6, MaxUnits: 2}
)

// Modes lists every supported mode in team-size order.
func Modes() []TeamMode {
	return []TeamMode{FFA, TwoVs, ThreeVs, FourVs, FiveVs, SixVs}
}

// ParseMode resolves a mode name such as "FFA", "2vs2" or "2v2" (case-insensitive).
func ParseMode(name string) (TeamMode, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Replace(n, "vs", "v", 1)
	for _, m := range Modes() {
		if strings.Replace(strings.ToLower(m.Name), "vs", "v", 1) == n {
			return m, nil
		}
	}
	return TeamMode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// IsTeam reports whether scores are aggregated over more than one member.
func (m TeamMode) IsTeam() bool { return m.TeamSize > 1 }

// Key is the lower-case config key for the mode ("ffa", "2vs2", ...).
func (m TeamMode) Key() string { return strings.ToLower(m.Name) }

// Units returns the number of scoring units for a roster of n competitors.
func (m TeamMode) Units(n int) (int, error) {
	if m.TeamSize < 1 {
		return 0, fmt.Errorf("%w: team size %d", ErrUnknownMode, m.TeamSize)
	}
	if n%m.TeamSize != 0 {
		return 0, fmt.Errorf("%w: %d competitors do not split into teams of %d", ErrShapeMismatch, n, m.TeamSize)
	}
	return n / m.TeamSize, nil
}

func (m TeamMode) String() string { return m.Name }
