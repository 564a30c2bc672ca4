// Package migrations holds the schema of the Postgres competitor store.
package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations is the ordered migration set applied by `ltrc migrate`.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			CREATE TABLE IF NOT EXISTS competitors (
				name                 text        PRIMARY KEY,
				mmr                  integer     NULL,
				previous_season_mmr  integer     NULL,
				updated_at           timestamptz NOT NULL DEFAULT current_timestamp
			)
		`).Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw(`
			CREATE TABLE IF NOT EXISTS placements (
				name             text       PRIMARY KEY REFERENCES competitors(name) ON DELETE CASCADE,
				completion       smallint   NOT NULL CHECK (completion BETWEEN 0 AND 2),
				event_scores     float8[]   NOT NULL DEFAULT '{}',
				accumulated_mmr  integer    NOT NULL DEFAULT 0
			)
		`).Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw(`
			CREATE TABLE IF NOT EXISTS rated_events (
				id        text        PRIMARY KEY,
				rated_at  timestamptz NOT NULL DEFAULT current_timestamp
			)
		`).Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw(`CREATE INDEX IF NOT EXISTS competitors_mmr_idx ON competitors (mmr DESC, name) WHERE mmr IS NOT NULL`).Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		for _, table := range []string{"rated_events", "placements", "competitors"} {
			if _, err := db.NewRaw("DROP TABLE IF EXISTS " + table).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
