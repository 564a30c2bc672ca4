// Package repository defines the competitor store port and an in-memory
// implementation of it.
package repository

import (
	"context"

	"github.com/okian/ltrc/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	MMR  int    `json:"mmr"`
	Tier string `json:"tier"`
}

// Store provides read/write access to persisted competitor state. Reads
// return copies; all writes go through Commit.
type Store interface {
	// Competitor returns one competitor or ErrNotFound.
	Competitor(ctx context.Context, name string) (model.Competitor, error)

	// Competitors returns the known competitors among names, keyed by name.
	// Unknown names are absent from the map.
	Competitors(ctx context.Context, names []string) (map[string]model.Competitor, error)

	// PlacementRecord returns the active placement record of name, or nil
	// when the competitor has none.
	PlacementRecord(ctx context.Context, name string) (*model.PlacementRecord, error)

	// Commit applies a batch atomically: either every write lands or none.
	Commit(ctx context.Context, batch model.Batch) error

	// Leaderboard returns placed competitors ordered by MMR desc then name.
	Leaderboard(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of known competitors.
	Count(ctx context.Context) int
}

// Importer seeds competitors outside the event flow. Existing competitors are
// overwritten.
type Importer interface {
	Import(ctx context.Context, cs []model.Competitor) error

	// StartSeason imports cs and drops every placement record, finished or
	// not, so the new season's placements start from 0/3.
	StartSeason(ctx context.Context, cs []model.Competitor) error
}
