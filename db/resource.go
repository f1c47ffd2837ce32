// ABOUTME: Key/value persistence resource shared by every collection store
// ABOUTME: Each collection lives under one key as a JSON array
package db

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when nothing is stored under the key.
var ErrKeyNotFound = errors.New("key not found")

// Storage keys, one per collection.
const (
	KeyEvents        = "manovate_calendar_events_v2"
	KeyTasks         = "manovate_tasks_v1"
	KeyLeads         = "crm_leads_data"
	KeyDeals         = "crm_deals_data"
	KeyNotifications = "crm_notifications"
	KeyUsers         = "crm_users"
)

// AllKeys lists every collection key in a backend.
var AllKeys = []string{KeyEvents, KeyTasks, KeyLeads, KeyDeals, KeyNotifications, KeyUsers}

// Resource is a process-wide key/value store.
type Resource interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
