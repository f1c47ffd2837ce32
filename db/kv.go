// ABOUTME: SQLite-backed Resource using the kv table
// ABOUTME: Default backend; shares the WAL database opened by OpenDatabase
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteResource stores collections as rows of the kv table.
type SQLiteResource struct {
	db *sql.DB
}

func NewSQLiteResource(db *sql.DB) *SQLiteResource {
	return &SQLiteResource{db: db}
}

func (r *SQLiteResource) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteResource) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteResource) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
