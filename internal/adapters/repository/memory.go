package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/internal/domain/ranktable"
	"github.com/okian/ltrc/internal/domain/standings"
	"github.com/okian/ltrc/pkg/metrics"
)

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	competitors map[string]model.Competitor
	placements  map[string]*model.PlacementRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		competitors: make(map[string]model.Competitor),
		placements:  make(map[string]*model.PlacementRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateCompetitorsTotal(len(s.competitors))
	return s
}

func (s *MemoryStore) Competitor(_ context.Context, name string) (model.Competitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competitors[name]
	if !ok {
		return model.Competitor{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return c, nil
}

func (s *MemoryStore) Competitors(_ context.Context, names []string) (map[string]model.Competitor, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Competitor, len(names))
	for _, n := range names {
		if c, ok := s.competitors[n]; ok {
			out[n] = c
		}
	}
	return out, nil
}

func (s *MemoryStore) PlacementRecord(_ context.Context, name string) (*model.PlacementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placements[name].Clone(), nil
}

// Commit validates the whole batch before touching any state.
func (s *MemoryStore) Commit(_ context.Context, batch model.Batch) error {
	start := time.Now()
	defer func() { metrics.RecordStoreCommitLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	registered := make(map[string]bool, len(batch.Registrations))
	for _, name := range batch.Registrations {
		if _, ok := s.competitors[name]; ok || registered[name] {
			return fmt.Errorf("%w: %s is already registered", ErrConflict, name)
		}
		registered[name] = true
	}
	known := func(name string) bool {
		_, ok := s.competitors[name]
		return ok || registered[name]
	}
	for _, u := range batch.Ratings {
		if !known(u.Name) {
			return fmt.Errorf("%w: rating for %s", ErrNotFound, u.Name)
		}
	}
	for i := range batch.Placements {
		rec := &batch.Placements[i]
		if !known(rec.Name) {
			return fmt.Errorf("%w: placement for %s", ErrNotFound, rec.Name)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
	}

	for _, name := range batch.Registrations {
		s.competitors[name] = model.Competitor{Name: name, Current: model.Unrated, PreviousSeason: model.Unrated}
	}
	for _, u := range batch.Ratings {
		c := s.competitors[u.Name]
		c.Current = model.Rated(u.MMR)
		s.competitors[u.Name] = c
	}
	for i := range batch.Placements {
		rec := batch.Placements[i]
		if rec.Completion == model.CompletionPlaced {
			delete(s.placements, rec.Name)
			continue
		}
		s.placements[rec.Name] = rec.Clone()
	}
	metrics.UpdateCompetitorsTotal(len(s.competitors))
	return nil
}

func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	rated := make([]model.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		if !c.Current.IsUnrated() {
			rated = append(rated, c)
		}
	}
	s.mu.RUnlock()
	return BuildLeaderboard(rated, limit), nil
}

// Import upserts competitors.
func (s *MemoryStore) Import(_ context.Context, cs []model.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		s.competitors[c.Name] = c
	}
	metrics.UpdateCompetitorsTotal(len(s.competitors))
	return nil
}

// StartSeason upserts cs and clears every placement record.
func (s *MemoryStore) StartSeason(_ context.Context, cs []model.Competitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.placements)
	for _, c := range cs {
		s.competitors[c.Name] = c
	}
	metrics.UpdateCompetitorsTotal(len(s.competitors))
	return nil
}

// Snapshot returns every competitor ordered by name.
func (s *MemoryStore) Snapshot() []model.Competitor {
	s.mu.RLock()
	out := make([]model.Competitor, 0, len(s.competitors))
	for _, c := range s.competitors {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.competitors)
}

// BuildLeaderboard orders rated competitors by MMR desc then name, assigns
// competition ranks over MMR and truncates to limit.
func BuildLeaderboard(rated []model.Competitor, limit int) []Entry {
	sort.Slice(rated, func(i, j int) bool {
		a, _ := rated[i].Current.Value()
		b, _ := rated[j].Current.Value()
		if a != b {
			return a > b
		}
		return rated[i].Name < rated[j].Name
	})
	mmrs := make([]int, len(rated))
	for i, c := range rated {
		mmrs[i], _ = c.Current.Value()
	}
	ranks := standings.Competition(mmrs)
	if limit < len(rated) {
		rated = rated[:limit]
	}
	out := make([]Entry, len(rated))
	for i, c := range rated {
		out[i] = Entry{Rank: ranks[i], Name: c.Name, MMR: mmrs[i], Tier: ranktable.TierOf(mmrs[i]).Name}
	}
	return out
}
