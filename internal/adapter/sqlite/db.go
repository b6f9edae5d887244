// Package sqlite persists debris pickup requests, their update timelines, and
// the denormalized road closure snapshot.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS zones (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	color_hex  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS debris_requests (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	full_name  TEXT NOT NULL,
	address    TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	zone_id    INTEGER REFERENCES zones(id),
	status     TEXT NOT NULL DEFAULT 'NEW',
	priority   INTEGER NOT NULL DEFAULT 0,
	notes      TEXT NOT NULL DEFAULT '',
	lat        REAL,
	lng        REAL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS request_updates (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id INTEGER NOT NULL REFERENCES debris_requests(id) ON DELETE CASCADE,
	note       TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_request_updates_request
	ON request_updates(request_id, created_at DESC);

CREATE TABLE IF NOT EXISTS closure_snapshot (
	id         INTEGER PRIMARY KEY,
	road_name  TEXT NOT NULL,
	status     TEXT NOT NULL,
	note       TEXT,
	lat        REAL,
	lng        REAL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_closure_snapshot_status
	ON closure_snapshot(status);
`

// Open opens (creating if needed) the SQLite database at path, applies the
// schema, and seeds the default pickup zones. Use ":memory:" for tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// modernc.org/sqlite connections do not share in-memory databases across
	// the pool, and WAL writers must be serialized anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := seedZones(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// seedZones inserts the two Cumberland County pickup zones on first run.
func seedZones(db *sql.DB) error {
	zones := []struct {
		name, color string
	}{
		{"North", "#2b6cb0"},
		{"South", "#38a169"},
	}
	for _, z := range zones {
		_, err := db.Exec(
			`INSERT INTO zones (name, color_hex) VALUES (?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			z.name, z.color,
		)
		if err != nil {
			return fmt.Errorf("seed zone %s: %w", z.name, err)
		}
	}
	return nil
}
