// Package db stores graded submissions for the leaderboard in SQLite.
package db

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/bev-grader/internal/timeutil"
	_ "modernc.org/sqlite"
)

// DB wraps the leaderboard database.
type DB struct {
	*sql.DB
	path  string
	clock timeutil.Clock
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens (creating if needed) the database at path, applies connection
// pragmas and brings the schema up to date.
func Open(path string) (*DB, error) {
	db, err := OpenWithoutMigrations(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenWithoutMigrations opens the database and applies pragmas but leaves the
// schema alone, for the migrate subcommand.
func OpenWithoutMigrations(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return &DB{DB: sqlDB, path: path, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the clock used for created_at stamps and busy backoff.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }
