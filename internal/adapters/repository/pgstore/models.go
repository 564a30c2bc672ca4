package pgstore

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/ltrc/internal/domain/model"
)

type competitorRow struct {
	bun.BaseModel `bun:"table:competitors,alias:c"`

	Name              string        `bun:"name,pk"`
	MMR               sql.NullInt64 `bun:"mmr"`
	PreviousSeasonMMR sql.NullInt64 `bun:"previous_season_mmr"`
	UpdatedAt         time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type placementRow struct {
	bun.BaseModel `bun:"table:placements,alias:p"`

	Name           string    `bun:"name,pk"`
	Completion     int       `bun:"completion,notnull"`
	EventScores    []float64 `bun:"event_scores,array"`
	AccumulatedMMR int       `bun:"accumulated_mmr,notnull"`
}

type ratedEventRow struct {
	bun.BaseModel `bun:"table:rated_events,alias:e"`

	ID      string    `bun:"id,pk"`
	RatedAt time.Time `bun:"rated_at,nullzero,notnull,default:current_timestamp"`
}

func toNull(m model.MMR) sql.NullInt64 {
	v, ok := m.Value()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}

func fromNull(n sql.NullInt64) model.MMR {
	if !n.Valid {
		return model.Unrated
	}
	return model.Rated(int(n.Int64))
}

func (r competitorRow) domain() model.Competitor {
	return model.Competitor{Name: r.Name, Current: fromNull(r.MMR), PreviousSeason: fromNull(r.PreviousSeasonMMR)}
}

func (r placementRow) domain() *model.PlacementRecord {
	return &model.PlacementRecord{
		Name:           r.Name,
		Completion:     model.Completion(r.Completion),
		EventScores:    append([]float64(nil), r.EventScores...),
		AccumulatedMMR: r.AccumulatedMMR,
	}
}
