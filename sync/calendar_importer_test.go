// ABOUTME: Tests for calendar event importer
// ABOUTME: Verifies filtering, hour snapping, pagination and sync_log dedupe against a fake source
package sync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

var importNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

type fakeSource struct {
	pages map[string]*calendar.Events
	err   error
	calls int
}

func (f *fakeSource) ListEvents(_ context.Context, from, to time.Time, pageToken string) (*calendar.Events, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[pageToken], nil
}

func timed(id, title, start, end string, attendees ...*calendar.EventAttendee) *calendar.Event {
	return &calendar.Event{
		Id:        id,
		Summary:   title,
		Start:     &calendar.EventDateTime{DateTime: start},
		End:       &calendar.EventDateTime{DateTime: end},
		Attendees: attendees,
	}
}

func newFakeSource() *fakeSource {
	self := &calendar.EventAttendee{Email: "me@example.com", Self: true, ResponseStatus: "accepted"}
	declined := &calendar.EventAttendee{Email: "me@example.com", Self: true, ResponseStatus: "declined"}
	bob := &calendar.EventAttendee{Email: "bob@acme.com"}

	cancelled := timed("g3", "Cancelled Sync", "2025-06-12T09:00:00Z", "2025-06-12T10:00:00Z")
	cancelled.Status = "cancelled"

	return &fakeSource{pages: map[string]*calendar.Events{
		"": {
			Items: []*calendar.Event{
				timed("g1", "Board Review", "2025-06-10T15:30:00Z", "2025-06-10T16:30:00Z", self, bob),
				{Id: "g2", Summary: "Offsite", Start: &calendar.EventDateTime{Date: "2025-06-13"}},
				cancelled,
			},
			NextPageToken: "p2",
		},
		"p2": {
			Items: []*calendar.Event{
				timed("g4", "Client Meeting", "2025-06-10T10:00:00Z", "2025-06-10T11:00:00Z"),
				timed("g5", "Early Gym", "2025-06-11T06:00:00Z", "2025-06-11T07:00:00Z"),
				timed("g6", "Skipped Lunch", "2025-06-11T12:00:00Z", "2025-06-11T13:00:00Z", declined, bob),
			},
		},
	}}
}

func newImportStore(t *testing.T) *store.EventStore {
	t.Helper()
	res, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })
	return store.NewEventStore(res, nil, store.WithClock(func() time.Time { return importNow }))
}

func TestShouldSkipEvent(t *testing.T) {
	skip, reason := shouldSkipEvent(nil)
	assert.True(t, skip)
	assert.Equal(t, "nil", reason)

	skip, reason = shouldSkipEvent(&calendar.Event{})
	assert.True(t, skip)
	assert.Equal(t, "missing start time", reason)

	skip, _ = shouldSkipEvent(timed("x", "Solo", "2025-06-10T09:00:00Z", "2025-06-10T10:00:00Z"))
	assert.False(t, skip)
}

func TestConvertEvent(t *testing.T) {
	bob := &calendar.EventAttendee{Email: "bob@acme.com"}
	e, ok := convertEvent(timed("g", "  Demo ", "2025-06-10T15:30:00Z", "2025-06-10T16:15:00Z", bob), time.UTC)
	require.True(t, ok)
	assert.Equal(t, "Demo", e.Title)
	assert.Equal(t, "2025-06-10", e.Date)
	assert.Equal(t, "15:00", e.Start)
	assert.Equal(t, "45 min", e.Duration)
	assert.Equal(t, models.EventMeeting, e.Type)
	assert.Equal(t, "bob@acme.com", e.Attendees)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	e, ok = convertEvent(timed("g", "", "2025-06-10T14:00:00Z", ""), ny)
	require.True(t, ok)
	assert.Equal(t, "(untitled)", e.Title)
	assert.Equal(t, "10:00", e.Start)
	assert.Equal(t, models.EventGeneral, e.Type)
	assert.Equal(t, store.DefaultDuration, e.Duration)

	_, ok = convertEvent(timed("g", "Late", "2025-06-10T22:00:00Z", ""), time.UTC)
	assert.False(t, ok)
}

func TestImportCalendarWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	events := newImportStore(t)
	src := newFakeSource()

	result, err := ImportCalendar(ctx, src, events, ImportOptions{Location: time.UTC, Now: func() time.Time { return importNow }})
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 6, result.Fetched)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, map[string]int{
		"all-day":                1,
		"cancelled":              1,
		"outside calendar hours": 1,
		"declined":               1,
	}, result.Skipped)

	all, err := events.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	imported := all[len(all)-1]
	assert.Equal(t, "Board Review", imported.Title)
	assert.Equal(t, "15:00", imported.Start)
	assert.Equal(t, "16:00", imported.End)

	result, err = ImportCalendar(ctx, newFakeSource(), events, ImportOptions{Location: time.UTC, Now: func() time.Time { return importNow }})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Duplicates)
}

func TestImportCalendarRecordsSyncLog(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	defer database.Close()

	events := newImportStore(t)
	opts := ImportOptions{DB: database, Location: time.UTC, Now: func() time.Time { return importNow }}

	_, err = ImportCalendar(ctx, newFakeSource(), events, opts)
	require.NoError(t, err)

	localID, err := db.LookupSyncLog(ctx, database, calendarService, "g1")
	require.NoError(t, err)
	require.NotEmpty(t, localID)

	state, err := CalendarStatus(ctx, database)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, db.SyncIdle, state.Status)
	assert.NotNil(t, state.LastSyncTime)

	// A locally deleted import stays deleted on the next run.
	require.NoError(t, events.Remove(ctx, localID))
	result, err := ImportCalendar(ctx, newFakeSource(), events, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)

	_, err = events.Get(ctx, localID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportCalendarRecordsFailure(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	defer database.Close()

	src := &fakeSource{err: errors.New("quota exceeded")}
	_, err = ImportCalendar(ctx, src, newImportStore(t), ImportOptions{DB: database})
	require.Error(t, err)

	state, err := CalendarStatus(ctx, database)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, db.SyncError, state.Status)
	assert.Contains(t, state.ErrorMessage, "quota exceeded")
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "", pluralize(1))
	assert.Equal(t, "s", pluralize(0))
	assert.Equal(t, "s", pluralize(2))
}
