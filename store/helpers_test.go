package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/manvote/crmdesk/db"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// countingResource wraps a Resource to count writes and inject write failures.
type countingResource struct {
	db.Resource
	mu      sync.Mutex
	sets    int
	failSet bool
}

func (r *countingResource) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet {
		return errDiskFull
	}
	r.sets++
	return r.Resource.Set(ctx, key, value)
}

func (r *countingResource) setCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

func (r *countingResource) failWrites(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSet = v
}

func newResource(t *testing.T) *countingResource {
	t.Helper()
	mem, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	return &countingResource{Resource: mem}
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
}
