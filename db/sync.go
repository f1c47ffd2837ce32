// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks external import runs and maps imported source ids to local entities
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sync statuses.
const (
	SyncIdle    = "idle"
	SyncRunning = "syncing"
	SyncError   = "error"
)

// SyncState records the last import run for a service.
type SyncState struct {
	Service      string
	LastSyncTime *time.Time
	Status       string
	ErrorMessage string
	UpdatedAt    time.Time
}

// GetSyncState returns the state for service, or nil if it has never run.
func GetSyncState(ctx context.Context, db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var last sql.NullTime
	var msg sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT service, last_sync_time, status, error_message, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(&state.Service, &last, &state.Status, &msg, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if last.Valid {
		state.LastSyncTime = &last.Time
	}
	state.ErrorMessage = msg.String
	return &state, nil
}

// UpdateSyncStatus sets the status for service. A successful idle status also stamps last_sync_time.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, service, status string, syncErr error) error {
	var msg sql.NullString
	if syncErr != nil {
		msg = sql.NullString{String: syncErr.Error(), Valid: true}
	}

	var last sql.NullTime
	if status == SyncIdle && syncErr == nil {
		last = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (service, last_sync_time, status, error_message, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = COALESCE(excluded.last_sync_time, sync_state.last_sync_time),
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, last, status, msg)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// LookupSyncLog returns the local entity id imported from (service, sourceID), or "".
func LookupSyncLog(ctx context.Context, db *sql.DB, service, sourceID string) (string, error) {
	var entityID string
	err := db.QueryRowContext(ctx, `
		SELECT entity_id FROM sync_log
		WHERE source_service = ? AND source_id = ?
	`, service, sourceID).Scan(&entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check sync log: %w", err)
	}
	return entityID, nil
}

// RecordSyncLog remembers that sourceID from service became entityID.
func RecordSyncLog(ctx context.Context, db *sql.DB, service, sourceID, entityType, entityID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_log (source_service, source_id, entity_type, entity_id, imported_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_service, source_id) DO UPDATE SET
			entity_id = excluded.entity_id,
			imported_at = CURRENT_TIMESTAMP
	`, service, sourceID, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}
