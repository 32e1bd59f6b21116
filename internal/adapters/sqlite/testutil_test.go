// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/plotsync/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// Every pooled connection to :memory: is a separate database
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedPlot inserts a test plot and returns its ID.
func seedPlot(t *testing.T, db *sql.DB, id int, status string) int {
	t.Helper()
	if status == "" {
		status = "unfinished"
	}
	_, err := db.Exec(
		"INSERT INTO plots (id, owner_uuid, owner_name, owner_discord_id, city, country, x, z, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, "uuid-owner", "Robin", "222", "Osaka", "Japan", 1.5, -2.5, status,
	)
	if err != nil {
		t.Fatalf("failed to seed plot: %v", err)
	}
	return id
}

// seedTracking inserts a test tracking entry and returns its message ID.
func seedTracking(t *testing.T, db *sql.DB, messageID string, plotID int, status string) string {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO tracking_entries (message_id, thread_id, plot_id, status, owner_uuid) VALUES (?, ?, ?, ?, ?)",
		messageID, "thread-"+messageID, plotID, status, "uuid-owner",
	)
	if err != nil {
		t.Fatalf("failed to seed tracking entry: %v", err)
	}
	return messageID
}
