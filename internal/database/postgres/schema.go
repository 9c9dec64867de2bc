package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is written to run unchanged on Postgres and SQLite.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS user_aggregates (
		user_id    TEXT PRIMARY KEY,
		document   JSONB NOT NULL,
		version    BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS producer_level_catalog (
		level                   INTEGER PRIMARY KEY,
		upgrade_cost            BIGINT NOT NULL,
		production_time_minutes INTEGER NOT NULL,
		yield_amount            BIGINT NOT NULL,
		activation_cost         BIGINT NOT NULL
	)`,
}

func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range Schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
