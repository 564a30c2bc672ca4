// Package pgstore is a Postgres implementation of repository.Store built on bun.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/okian/ltrc/internal/adapters/repository"
	"github.com/okian/ltrc/internal/adapters/repository/pgstore/migrations"
	"github.com/okian/ltrc/internal/domain/model"
	"github.com/okian/ltrc/pkg/metrics"
)

// Store persists competitors and placement records in Postgres.
type Store struct {
	db *bun.DB
}

var (
	_ repository.Store    = (*Store)(nil)
	_ repository.Importer = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(bun.NewDB(sqldb, pgdialect.New())), nil
}

// New wraps an existing bun.DB.
func New(db *bun.DB) *Store {
	db.RegisterModel((*competitorRow)(nil), (*placementRow)(nil), (*ratedEventRow)(nil))
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations.
func (s *Store) DB() *bun.DB { return s.db }

// Migrator returns a migrator over the store schema.
func (s *Store) Migrator() *migrate.Migrator {
	return migrate.NewMigrator(s.db, migrations.Migrations)
}

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Competitor(ctx context.Context, name string) (model.Competitor, error) {
	var row competitorRow
	err := s.db.NewSelect().Model(&row).Where("name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Competitor{}, fmt.Errorf("%w: %s", repository.ErrNotFound, name)
	}
	if err != nil {
		return model.Competitor{}, fmt.Errorf("select competitor %s: %w", name, err)
	}
	return row.domain(), nil
}

func (s *Store) Competitors(ctx context.Context, names []string) (map[string]model.Competitor, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	out := make(map[string]model.Competitor, len(names))
	if len(names) == 0 {
		return out, nil
	}
	var rows []competitorRow
	if err := s.db.NewSelect().Model(&rows).Where("name IN (?)", bun.In(names)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select competitors: %w", err)
	}
	for _, r := range rows {
		out[r.Name] = r.domain()
	}
	return out, nil
}

func (s *Store) PlacementRecord(ctx context.Context, name string) (*model.PlacementRecord, error) {
	var row placementRow
	err := s.db.NewSelect().Model(&row).Where("name = ?", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select placement %s: %w", name, err)
	}
	return row.domain(), nil
}

// Commit writes the batch in one transaction. An event ID that was already
// committed is rejected with repository.ErrConflict.
func (s *Store) Commit(ctx context.Context, batch model.Batch) error {
	start := time.Now()
	defer func() { metrics.RecordStoreCommitLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	for i := range batch.Placements {
		if err := batch.Placements[i].Validate(); err != nil {
			return err
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if batch.EventID != "" {
			res, err := tx.NewInsert().Model(&ratedEventRow{ID: batch.EventID}).On("CONFLICT (id) DO NOTHING").Exec(ctx)
			if err != nil {
				return fmt.Errorf("record event %s: %w", batch.EventID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: event %s already committed", repository.ErrConflict, batch.EventID)
			}
		}

		if len(batch.Registrations) > 0 {
			rows := make([]competitorRow, len(batch.Registrations))
			for i, name := range batch.Registrations {
				rows[i] = competitorRow{Name: name}
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("%w: register competitors: %v", repository.ErrConflict, err)
			}
		}

		for _, u := range batch.Ratings {
			res, err := tx.NewUpdate().Model((*competitorRow)(nil)).
				Set("mmr = ?", u.MMR).
				Set("updated_at = current_timestamp").
				Where("name = ?", u.Name).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update rating %s: %w", u.Name, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: rating for %s", repository.ErrNotFound, u.Name)
			}
		}

		for _, rec := range batch.Placements {
			if rec.Completion == model.CompletionPlaced {
				if _, err := tx.NewDelete().Model((*placementRow)(nil)).Where("name = ?", rec.Name).Exec(ctx); err != nil {
					return fmt.Errorf("retire placement %s: %w", rec.Name, err)
				}
				continue
			}
			row := placementRow{
				Name:           rec.Name,
				Completion:     int(rec.Completion),
				EventScores:    rec.EventScores,
				AccumulatedMMR: rec.AccumulatedMMR,
			}
			_, err := tx.NewInsert().Model(&row).
				On("CONFLICT (name) DO UPDATE").
				Set("completion = EXCLUDED.completion").
				Set("event_scores = EXCLUDED.event_scores").
				Set("accumulated_mmr = EXCLUDED.accumulated_mmr").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("upsert placement %s: %w", rec.Name, err)
			}
		}
		return nil
	})
}

func (s *Store) Leaderboard(ctx context.Context, limit int) ([]repository.Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", repository.ErrInvalidLimit, limit)
	}
	var rows []competitorRow
	err := s.db.NewSelect().Model(&rows).
		Where("mmr IS NOT NULL").
		OrderExpr("mmr DESC, name ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	rated := make([]model.Competitor, len(rows))
	for i, r := range rows {
		rated[i] = r.domain()
	}
	return repository.BuildLeaderboard(rated, limit), nil
}

func (s *Store) Count(ctx context.Context) int {
	n, err := s.db.NewSelect().Model((*competitorRow)(nil)).Count(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("pgstore", "count")
		return 0
	}
	return n
}

// Import upserts competitors with their current and previous-season MMR.
func (s *Store) Import(ctx context.Context, cs []model.Competitor) error {
	return upsertCompetitors(ctx, s.db, cs)
}

// StartSeason drops every placement record and upserts cs in one
// transaction.
func (s *Store) StartSeason(ctx context.Context, cs []model.Competitor) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*placementRow)(nil)).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("reset placements: %w", err)
		}
		return upsertCompetitors(ctx, tx, cs)
	})
}

func upsertCompetitors(ctx context.Context, db bun.IDB, cs []model.Competitor) error {
	if len(cs) == 0 {
		return nil
	}
	rows := make([]competitorRow, len(cs))
	for i, c := range cs {
		rows[i] = competitorRow{Name: c.Name, MMR: toNull(c.Current), PreviousSeasonMMR: toNull(c.PreviousSeason)}
	}
	_, err := db.NewInsert().Model(&rows).
		On("CONFLICT (name) DO UPDATE").
		Set("mmr = EXCLUDED.mmr").
		Set("previous_season_mmr = EXCLUDED.previous_season_mmr").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("import competitors: %w", err)
	}
	return nil
}
