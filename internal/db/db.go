package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect is the SQL flavour behind a connection.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// ParseDSN picks the driver for a DSN. postgres:// and postgresql:// select
// Postgres; sqlite:// prefixes, bare paths and the empty string select SQLite
// (empty = default path under the home directory).
func ParseDSN(dsn string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case dsn == "":
		path, err := DefaultPath()
		if err != nil {
			return "", "", err
		}
		return DialectSQLite, path, nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported database dsn scheme in %q", dsn)
	default:
		return DialectSQLite, dsn, nil
	}
}

// Open opens the database named by dsn and brings its schema up to date.
func Open(dsn string) (*sql.DB, Dialect, error) {
	dialect, source, err := ParseDSN(dsn)
	if err != nil {
		return nil, "", err
	}

	if dialect == DialectSQLite && source != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(source), 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// Enable foreign keys
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, "", fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	if err := InitSchema(conn, dialect); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("failed to initialize schema: %w", err)
	}

	return conn, dialect, nil
}

// DefaultPath returns the path of the default SQLite database file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".plotsync", "plotsync.db"), nil
}
