package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

// Timestamps are stored as UTC unix seconds so range comparisons stay
// numeric regardless of driver time formatting. Brew counts are unique per
// epoch, not globally: the device counter restarts after a factory reset,
// so a post-reset brew may legitimately reuse a pre-reset count.
const schemaBrewEvents = `
CREATE TABLE IF NOT EXISTS brew_events (
    id TEXT PRIMARY KEY,
    recorded_at INTEGER NOT NULL,
    volume_ml INTEGER NOT NULL,
    profile_id TEXT,
    profile_title TEXT,
    aggregated BOOLEAN NOT NULL DEFAULT 0,
    brew_count INTEGER NOT NULL,
    total_volume_ml INTEGER NOT NULL,
    epoch INTEGER NOT NULL DEFAULT 0,
    UNIQUE (epoch, brew_count)
);
`

const schemaBrewEventsIdx = `
CREATE INDEX IF NOT EXISTS idx_brew_events_recorded_at ON brew_events (recorded_at);
`

const schemaUsageBaseline = `
CREATE TABLE IF NOT EXISTS usage_baseline (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    recorded_at INTEGER NOT NULL,
    volume_ml INTEGER NOT NULL,
    brew_count INTEGER NOT NULL,
    epoch INTEGER NOT NULL DEFAULT 0
);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaBrewEvents,
		schemaBrewEventsIdx,
		schemaUsageBaseline,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
