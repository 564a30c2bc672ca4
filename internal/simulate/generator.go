package simulate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/okian/ltrc/internal/domain/model"
)

// Room is the POST /events payload of one generated room.
type Room struct {
	EventID string       `json:"event_id"`
	Mode    string       `json:"mode"`
	Results []RoomResult `json:"results"`
}

// RoomResult is one racer's line in a generated room.
type RoomResult struct {
	Competitor string `json:"competitor"`
	RawScore   int    `json:"raw_score"`
}

// generator draws rooms from a fixed roster of fake racer names.
type generator struct {
	faker  *gofakeit.Faker
	roster []string
}

func newGenerator(seed uint64, racers int) *generator {
	faker := gofakeit.New(seed)
	seen := make(map[string]struct{}, racers)
	roster := make([]string, 0, racers)
	for len(roster) < racers {
		name := faker.Username()
		if _, dup := seen[name]; dup {
			name = fmt.Sprintf("%s%d", name, len(roster))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		roster = append(roster, name)
	}
	return &generator{faker: faker, roster: roster}
}

// room draws size distinct racers, gives each a score and lists the teams in
// finishing order.
func (g *generator) room(mode model.TeamMode, size int) Room {
	picked := make([]string, len(g.roster))
	copy(picked, g.roster)
	g.faker.ShuffleStrings(picked)

	r := Room{
		EventID: uuid.NewString(),
		Mode:    mode.Name,
		Results: make([]RoomResult, size),
	}
	for i := range size {
		r.Results[i] = RoomResult{Competitor: picked[i], RawScore: g.faker.IntRange(0, maxScore)}
	}
	r.Results = finishingOrder(r.Results, mode.TeamSize)
	return r
}

// finishingOrder sorts consecutive teams of teamSize by their summed score,
// best first, keeping teammates together.
func finishingOrder(results []RoomResult, teamSize int) []RoomResult {
	if teamSize < 1 || len(results)%teamSize != 0 {
		return results
	}
	teams := slices.Collect(slices.Chunk(results, teamSize))
	sum := func(team []RoomResult) int {
		total := 0
		for _, res := range team {
			total += res.RawScore
		}
		return total
	}
	slices.SortStableFunc(teams, func(a, b []RoomResult) int {
		return cmp.Compare(sum(b), sum(a))
	})
	return slices.Concat(teams...)
}

func (g *generator) rooms(mode model.TeamMode, size, n int) []Room {
	out := make([]Room, n)
	for i := range out {
		out[i] = g.room(mode, size)
	}
	return out
}
