package calendar

import (
	"testing"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotFixture() []models.Event {
	return []models.Event{
		{ID: "a", Title: "Kickoff", Type: models.EventMeeting, Date: "2025-06-10", Start: "09:00"},
		{ID: "b", Title: "Launch", Type: models.EventGeneral, Date: "2025-06-10", Start: "11:00"},
		{ID: "c", Title: "Call back", Type: models.EventReminder, Date: "2025-06-10", Start: "09:00"},
		{ID: "d", Title: "Other day", Type: models.EventMeeting, Date: "2025-06-11", Start: "09:00"},
	}
}

func TestResolveSlotDistinctHours(t *testing.T) {
	events := slotFixture()

	e, ok := ResolveSlot(events, "2025-06-10", 9, CategoryAll)
	require.True(t, ok)
	assert.Equal(t, "a", e.ID, "first match in store order wins")

	e, ok = ResolveSlot(events, "2025-06-10", 11, CategoryAll)
	require.True(t, ok)
	assert.Equal(t, "b", e.ID)

	_, ok = ResolveSlot(events, "2025-06-10", 10, CategoryAll)
	assert.False(t, ok)
}

func TestResolveSlotCategoryFilter(t *testing.T) {
	events := slotFixture()

	e, ok := ResolveSlot(events, "2025-06-10", 9, CategoryReminders)
	require.True(t, ok)
	assert.Equal(t, "c", e.ID, "filter applies before picking the first match")

	_, ok = ResolveSlot(events, "2025-06-10", 11, CategoryMeetings)
	assert.False(t, ok)

	e, ok = ResolveSlot(events, "2025-06-10", 11, CategoryEvents)
	require.True(t, ok)
	assert.Equal(t, "b", e.ID)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"All Scheduled", CategoryAll, true},
		{"", CategoryAll, true},
		{"meetings", CategoryMeetings, true},
		{"Task Reminder", CategoryReminders, true},
		{"event", CategoryEvents, true},
		{"birthdays", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryNextWraps(t *testing.T) {
	assert.Equal(t, CategoryEvents, CategoryAll.Next())
	assert.Equal(t, CategoryAll, CategoryReminders.Next())
}

func TestResolveDayAndInRange(t *testing.T) {
	events := slotFixture()

	day := ResolveDay(events, "2025-06-10", CategoryAll)
	require.Len(t, day, 3)
	assert.Equal(t, "09:00", day[0].Start)
	assert.Equal(t, "11:00", day[2].Start)

	ranged := InRange(events, date(2025, 6, 11), date(2025, 6, 30))
	require.Len(t, ranged, 1)
	assert.Equal(t, "d", ranged[0].ID)
}

func TestUpcoming(t *testing.T) {
	events := slotFixture()
	now := date(2025, 6, 10).Add(10 * time.Hour)

	got := Upcoming(events, now, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "d", got[1].ID)

	assert.Len(t, Upcoming(events, now, 1), 1)
}
