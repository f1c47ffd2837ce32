package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, opts ...ControllerOption) (*Controller, *store.EventStore, *notify.Recorder) {
	t.Helper()
	events := newEventStore(t)
	rec := &notify.Recorder{}
	opts = append([]ControllerOption{WithNow(testNow)}, opts...)
	return NewController(events, rec, opts...), events, rec
}

func TestControllerDefaults(t *testing.T) {
	c, _, _ := newController(t)
	assert.Equal(t, ViewWeek, c.View())
	assert.Equal(t, CategoryAll, c.Category())
	assert.Equal(t, testNow(), c.CurrentDate())
	assert.Equal(t, "Jun 8 - Jun 14, 2025", c.Title())
}

func TestStandupScenario(t *testing.T) {
	ctx := context.Background()
	c, events, rec := newController(t)

	draft, err := c.OpenSlot(date(2025, 6, 10), 9)
	require.NoError(t, err)
	assert.Equal(t, models.EventMeeting, draft.Type)
	assert.Equal(t, "60 min", draft.Duration)

	draft.Title = "Standup"
	created, err := c.Save(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "10:00", created.End)

	got, ok, err := c.Slot(ctx, date(2025, 6, 10), 9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)

	c.SetCategory(CategoryReminders)
	_, ok, err = c.Slot(ctx, date(2025, 6, 10), 9)
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, rec.Items, 1)
	assert.Equal(t, "New Event Created", rec.Items[0].Title)
	assert.Equal(t, `Scheduled "Standup" for 2025-06-10 at 09:00`, rec.Items[0].Message)
	assert.Equal(t, models.NotifySuccess, rec.Items[0].Type)

	all, err := events.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestOpenSlotRejectsHoursOutsideGrid(t *testing.T) {
	c, _, _ := newController(t)
	_, err := c.OpenSlot(date(2025, 6, 10), 6)
	assert.True(t, errors.Is(err, ErrInvalidSlot))
	_, err = c.OpenSlot(date(2025, 6, 10), 22)
	assert.True(t, errors.Is(err, ErrInvalidSlot))
}

func TestSaveUpdateNotifies(t *testing.T) {
	ctx := context.Background()
	c, _, rec := newController(t)

	draft, err := c.OpenEvent(ctx, "2")
	require.NoError(t, err)
	draft.Title = "Team Sync (moved)"
	draft.Start = "16:00"

	saved, err := c.Save(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "17:00", saved.End)

	stored, err := c.OpenEvent(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Team Sync (moved)", stored.Title)

	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Event Updated", rec.Items[0].Title)
	assert.Equal(t, `Updated "Team Sync (moved)" on 2025-06-10`, rec.Items[0].Message)
	assert.Equal(t, models.NotifyInfo, rec.Items[0].Type)
}

func TestSaveUnknownIDIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	c, events, rec := newController(t)
	before, err := events.List(ctx)
	require.NoError(t, err)

	_, err = c.Save(ctx, models.Event{ID: "missing", Title: "Ghost", Date: "2025-06-10", Start: "12:00"})
	require.NoError(t, err)

	after, err := events.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, rec.Items)
}

func TestSaveRejectsInvalidDraft(t *testing.T) {
	c, _, rec := newController(t)
	_, err := c.Save(context.Background(), models.Event{Title: "Late", Date: "2025-06-10", Start: "09:30"})
	assert.True(t, errors.Is(err, store.ErrInvalid))
	assert.Empty(t, rec.Items)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	c, events, rec := newController(t)

	assert.ErrorIs(t, c.ConfirmDelete(ctx), ErrNothingPending)

	staged, err := c.RequestDelete(ctx, "1")
	require.NoError(t, err)
	pending, ok := c.PendingDelete()
	require.True(t, ok)
	assert.Equal(t, staged, pending)

	c.CancelDelete()
	_, ok = c.PendingDelete()
	assert.False(t, ok)
	_, err = events.Get(ctx, "1")
	require.NoError(t, err, "cancel keeps the event")

	_, err = c.RequestDelete(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, c.ConfirmDelete(ctx))

	_, err = events.Get(ctx, "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "Event Deleted", rec.Items[0].Title)
	assert.Equal(t, `Removed "Client Meeting" from calendar.`, rec.Items[0].Message)
	assert.Equal(t, models.NotifyWarning, rec.Items[0].Type)
}

func TestNavigation(t *testing.T) {
	c, _, _ := newController(t)

	c.Next()
	assert.Equal(t, testNow().AddDate(0, 0, 7), c.CurrentDate())

	c.SetView(ViewDay)
	c.Prev()
	assert.Equal(t, testNow().AddDate(0, 0, 6), c.CurrentDate())

	c.SetView(ViewMonth)
	c.SetDate(time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC))
	c.Next()
	assert.Equal(t, time.Date(2025, 2, 28, 9, 0, 0, 0, time.UTC), c.CurrentDate())
	assert.Equal(t, "February 2025", c.Title())

	c.MiniNext()
	c.MiniNext()
	assert.Equal(t, time.August, c.MiniDate().Month())

	c.Today()
	assert.Equal(t, testNow(), c.CurrentDate())
	assert.Equal(t, testNow(), c.MiniDate())
}

func TestMonthGridCoversFullWeeks(t *testing.T) {
	c, _, _ := newController(t, WithView(ViewMonth))

	grid := c.MonthGrid()
	require.Len(t, grid, 5)
	assert.Equal(t, date(2025, 6, 1), grid[0][0].Date)
	assert.Equal(t, date(2025, 7, 5), grid[4][6].Date)
	assert.False(t, grid[4][6].InMonth)
	assert.True(t, grid[1][2].IsToday)

	c.SetDate(date(2026, 2, 10))
	assert.Len(t, c.MonthGrid(), 4, "February 2026 starts on Sunday and ends on Saturday")

	from, to := c.VisibleRange()
	assert.Equal(t, date(2026, 2, 1), from)
	assert.Equal(t, date(2026, 2, 28), to)
}

func TestWeekDaysStartOnSunday(t *testing.T) {
	c, _, _ := newController(t)
	days := c.WeekDays()
	require.Len(t, days, 7)
	assert.Equal(t, time.Sunday, days[0].Weekday())
	assert.Equal(t, date(2025, 6, 8), days[0])
	assert.Equal(t, date(2025, 6, 14), days[6])
	assert.Len(t, Hours(), 15)
}

func TestListGroups(t *testing.T) {
	ctx := context.Background()
	c, events, _ := newController(t, WithView(ViewList))

	_, err := events.Create(ctx, models.Event{Title: "Standup", Date: "2025-06-10", Start: "09:00"})
	require.NoError(t, err)
	_, err = events.Create(ctx, models.Event{Title: "Next month", Date: "2025-07-01", Start: "09:00"})
	require.NoError(t, err)

	groups, err := c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "2025-06-10", groups[0].Date)
	require.Len(t, groups[0].Events, 3)
	assert.Equal(t, "Standup", groups[0].Events[0].Title)
	assert.Equal(t, "Client Meeting", groups[0].Events[1].Title)
	assert.Equal(t, "2025-06-11", groups[1].Date)

	c.SetCategory(CategoryEvents)
	groups, err = c.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Team Sync", groups[0].Events[0].Title)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("month")
	assert.True(t, ok)
	assert.Equal(t, ViewMonth, v)
	_, ok = ParseView("year")
	assert.False(t, ok)
}
