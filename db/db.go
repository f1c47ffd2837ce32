// ABOUTME: Opens the sqlite file that backs the default kv storage and the import bookkeeping
// ABOUTME: One WAL connection with a busy timeout so serve, the TUI and the CLI can share the file
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMS is how long a writer waits on another process's lock.
const busyTimeoutMS = 5000

func dsn(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", path, busyTimeoutMS)
}

// OpenDatabase opens path, creating its directory, and applies the schema.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	// One connection avoids "database is locked" within a process.
	database.SetMaxOpenConns(1)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := InitSchema(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}
