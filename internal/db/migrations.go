package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "replace_no_feedback_sentinel_with_null",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_plot_events_table",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "ensure_plots_table",
		Up:      migrationV3,
	},
}

// legacyFeedbackSentinel is what older installs stored for "no feedback yet".
const legacyFeedbackSentinel = "No Feedback"

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(conn *sql.DB) error {
	if err := createVersionTable(conn); err != nil {
		return err
	}

	// Get current schema version
	var currentVersion int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 makes feedback nullable and turns the legacy sentinel into NULL.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE tracking_entries_new (
			message_id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			plot_id INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('on_going', 'finished', 'rejected', 'approved', 'archived', 'abandoned')),
			owner_uuid TEXT NOT NULL,
			owner_discord_id TEXT,
			feedback TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create tracking_entries_new: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO tracking_entries_new
			(message_id, thread_id, plot_id, status, owner_uuid, owner_discord_id, feedback, created_at, updated_at)
		SELECT message_id, thread_id, plot_id, status, owner_uuid, owner_discord_id,
			NULLIF(feedback, ?), created_at, updated_at
		FROM tracking_entries
	`, legacyFeedbackSentinel)
	if err != nil {
		return fmt.Errorf("failed to copy tracking entries: %w", err)
	}

	for _, stmt := range []string{
		"DROP TABLE tracking_entries",
		"ALTER TABLE tracking_entries_new RENAME TO tracking_entries",
		"CREATE INDEX IF NOT EXISTS idx_tracking_plot ON tracking_entries(plot_id)",
		"CREATE INDEX IF NOT EXISTS idx_tracking_status ON tracking_entries(status)",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}
	return nil
}

// migrationV2 adds the plot event audit log.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}

// migrationV3 creates the plots table for installs that read plots from another store.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}
