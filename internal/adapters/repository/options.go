package repository

import "github.com/okian/ltrc/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCompetitors seeds the store, e.g. from a previous season export.
func WithCompetitors(cs ...model.Competitor) Option {
	return func(s *MemoryStore) {
		for _, c := range cs {
			s.competitors[c.Name] = c
		}
	}
}

// WithPlacementRecords seeds active placement records.
func WithPlacementRecords(recs ...model.PlacementRecord) Option {
	return func(s *MemoryStore) {
		for _, r := range recs {
			s.placements[r.Name] = r.Clone()
		}
	}
}
