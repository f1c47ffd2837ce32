package calendar

import (
	"testing"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/store"
	"github.com/stretchr/testify/require"
)

// June 10 2025 is a Tuesday.
func testNow() time.Time {
	return time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
}

func newEventStore(t *testing.T) *store.EventStore {
	t.Helper()
	mem, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	return store.NewEventStore(mem, broadcast.New(), store.WithClock(testNow))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
