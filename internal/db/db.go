package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database connection and configures pragmas.
//
// Connections use _txlock=immediate, so every transaction takes the
// write lock at BEGIN and writers serialize against each other.
// Combined with busy_timeout this bounds the wait on write
// contention: a writer that cannot obtain the lock within the
// timeout gets SQLITE_BUSY instead of blocking forever.
func Open(path string) (*sql.DB, error) {
	// _time_format=sqlite stores timestamps in SQLite's own text
	// format, so SQL comparisons on bound time.Time values are
	// well-ordered (callers bind UTC times).
	db, err := sql.Open("sqlite", "file:"+path+"?_txlock=immediate&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for performance and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}
