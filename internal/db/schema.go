package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern SQLite schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the SQLite schema. All repository
// tests use it via GetSchemaSQL(), so a column referenced by repository code
// but missing here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here and PostgresSchemaSQL below
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Plots (external plot database, read-only to plotsync)
CREATE TABLE IF NOT EXISTS plots (
	id INTEGER PRIMARY KEY,
	owner_uuid TEXT NOT NULL,
	owner_name TEXT NOT NULL DEFAULT '',
	owner_discord_id TEXT,
	city TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	x REAL NOT NULL DEFAULT 0,
	z REAL NOT NULL DEFAULT 0,
	mc_coordinates TEXT,
	status TEXT NOT NULL CHECK(status IN ('unclaimed', 'unfinished', 'unreviewed', 'completed')) DEFAULT 'unclaimed'
);

CREATE INDEX IF NOT EXISTS idx_plots_status ON plots(status);

-- Tracking entries (one forum thread per plot, keyed by status message)
CREATE TABLE IF NOT EXISTS tracking_entries (
	message_id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	plot_id INTEGER NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('on_going', 'finished', 'rejected', 'approved', 'archived', 'abandoned')),
	owner_uuid TEXT NOT NULL,
	owner_discord_id TEXT,
	feedback TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracking_plot ON tracking_entries(plot_id);
CREATE INDEX IF NOT EXISTS idx_tracking_status ON tracking_entries(status);

-- Plot events (audit log of processed updates)
CREATE TABLE IF NOT EXISTS plot_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	plot_id INTEGER NOT NULL,
	event TEXT NOT NULL,
	actor_id TEXT,
	correlation_id TEXT,
	status TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK(outcome IN ('ok', 'partial', 'failed')),
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_plot_events_plot ON plot_events(plot_id);
`

// PostgresSchemaSQL is the same schema in the Postgres dialect.
// Postgres installs start from this schema; migrations are SQLite-only.
const PostgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS plots (
	id INTEGER PRIMARY KEY,
	owner_uuid TEXT NOT NULL,
	owner_name TEXT NOT NULL DEFAULT '',
	owner_discord_id TEXT,
	city TEXT NOT NULL DEFAULT '',
	country TEXT NOT NULL DEFAULT '',
	x DOUBLE PRECISION NOT NULL DEFAULT 0,
	z DOUBLE PRECISION NOT NULL DEFAULT 0,
	mc_coordinates TEXT,
	status TEXT NOT NULL CHECK(status IN ('unclaimed', 'unfinished', 'unreviewed', 'completed')) DEFAULT 'unclaimed'
);

CREATE INDEX IF NOT EXISTS idx_plots_status ON plots(status);

CREATE TABLE IF NOT EXISTS tracking_entries (
	message_id TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	plot_id INTEGER NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('on_going', 'finished', 'rejected', 'approved', 'archived', 'abandoned')),
	owner_uuid TEXT NOT NULL,
	owner_discord_id TEXT,
	feedback TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tracking_plot ON tracking_entries(plot_id);
CREATE INDEX IF NOT EXISTS idx_tracking_status ON tracking_entries(status);

CREATE TABLE IF NOT EXISTS plot_events (
	id BIGSERIAL PRIMARY KEY,
	plot_id INTEGER NOT NULL,
	event TEXT NOT NULL,
	actor_id TEXT,
	correlation_id TEXT,
	status TEXT NOT NULL,
	outcome TEXT NOT NULL CHECK(outcome IN ('ok', 'partial', 'failed')),
	detail TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_plot_events_plot ON plot_events(plot_id);
`

// InitSchema creates or upgrades the schema.
func InitSchema(conn *sql.DB, dialect Dialect) error {
	if dialect == DialectPostgres {
		if _, err := conn.Exec(PostgresSchemaSQL); err != nil {
			return fmt.Errorf("failed to create postgres schema: %w", err)
		}
		return nil
	}

	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}
	if tableCount > 0 {
		return RunMigrations(conn)
	}

	// Databases written before schema versioning have tracking_entries but no schema_version
	var legacyCount int
	err = conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tracking_entries'").Scan(&legacyCount)
	if err != nil {
		return err
	}
	if legacyCount > 0 {
		return RunMigrations(conn)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}

// GetPostgresSchemaSQL returns the Postgres schema for integration tests.
func GetPostgresSchemaSQL() string {
	return PostgresSchemaSQL
}
