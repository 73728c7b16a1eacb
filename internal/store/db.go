package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"       // postgres driver
	_ "modernc.org/sqlite"      // pure-go sqlite driver
)

// NewDB opens a database connection for the given DSN. Postgres DSNs
// (postgres:// or postgresql://) use lib/pq; anything else is treated as a
// SQLite file path. The schema is written in the common type subset of the
// two engines, and all store queries use $1-style placeholders, which both
// drivers accept.
func NewDB(dsn string) (*sql.DB, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}

	if driver == "sqlite" {
		// Foreign keys are off by default in SQLite; cascade delete on
		// agency_tags depends on them.
		if !strings.Contains(dsn, "_pragma") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)"
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// A single connection avoids SQLITE_BUSY under concurrent writes.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist.
//
// Size and tag slugs are uniquely indexed; the agency slug deliberately is
// not (agency slugs are display-only and nothing looks records up by them).
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sizes (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			slug TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sizes_slug ON sizes(slug)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_slug ON tags(slug)`,
		`CREATE TABLE IF NOT EXISTS agencies (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL,
			founded INTEGER,
			logo_url TEXT,
			logo_id TEXT,
			size_id TEXT REFERENCES sizes(id),
			slug TEXT,
			visible INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agencies_name ON agencies(name)`,
		`CREATE INDEX IF NOT EXISTS idx_agencies_size ON agencies(size_id)`,
		`CREATE INDEX IF NOT EXISTS idx_agencies_visible ON agencies(visible)`,
		`CREATE TABLE IF NOT EXISTS agency_tags (
			agency_id TEXT NOT NULL REFERENCES agencies(id) ON DELETE CASCADE,
			tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (agency_id, tag_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agency_tags_agency ON agency_tags(agency_id)`,
		`CREATE INDEX IF NOT EXISTS idx_agency_tags_tag ON agency_tags(tag_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
