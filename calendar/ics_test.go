package calendar

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICSRoundTrip(t *testing.T) {
	events := []models.Event{
		{ID: "a", Title: "Standup", Type: models.EventMeeting, Date: "2025-06-10", Start: "09:00", End: "10:00",
			Desc: "Daily", Attendees: "ana@acme.example, bo@acme.example"},
		{ID: "b", Title: "Call vendor", Type: models.EventReminder, Date: "2025-06-12", Start: "15:00", End: "16:00"},
	}

	body, err := ExportICS(events, time.UTC)
	require.NoError(t, err)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Standup")

	got, stats, err := ParseICS(strings.NewReader(body), date(2025, 6, 1), date(2025, 7, 1), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Parsed)
	require.Len(t, got, 2)

	assert.Equal(t, "Standup", got[0].Title)
	assert.Equal(t, models.EventMeeting, got[0].Type)
	assert.Equal(t, "2025-06-10", got[0].Date)
	assert.Equal(t, "09:00", got[0].Start)
	assert.Equal(t, "Daily", got[0].Desc)
	assert.Equal(t, "ana@acme.example, bo@acme.example", got[0].Attendees)
	assert.Equal(t, models.EventReminder, got[1].Type)
}

const recurringICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:weekly@test
DTSTAMP:20250601T000000Z
DTSTART:20250602T090000Z
DTEND:20250602T093000Z
SUMMARY:Weekly planning
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20250609T090000Z
END:VEVENT
BEGIN:VEVENT
UID:allday@test
DTSTAMP:20250601T000000Z
DTSTART;VALUE=DATE:20250605
SUMMARY:Offsite
END:VEVENT
BEGIN:VEVENT
UID:early@test
DTSTAMP:20250601T000000Z
DTSTART:20250603T050000Z
SUMMARY:Too early
END:VEVENT
END:VCALENDAR
`

func TestParseICSExpandsRecurrence(t *testing.T) {
	got, stats, err := ParseICS(strings.NewReader(recurringICS), date(2025, 6, 1), date(2025, 7, 1), time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Parsed)
	assert.Equal(t, 1, stats.AllDay)
	assert.Equal(t, 1, stats.OutOfRange)
	require.Len(t, got, 3, "four weekly instances minus one EXDATE")

	assert.Equal(t, "2025-06-02", got[0].Date)
	assert.Equal(t, "2025-06-16", got[1].Date)
	assert.Equal(t, "2025-06-23", got[2].Date)
	for _, e := range got {
		assert.Equal(t, models.EventGeneral, e.Type)
		assert.Equal(t, "09:00", e.Start)
		assert.Equal(t, "30 min", e.Duration)
	}
}

func TestImportEventsSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	events := newEventStore(t)

	incoming := []models.Event{
		{Title: "Client Meeting", Date: "2025-06-10", Start: "10:00"},
		{Title: "Weekly planning", Type: models.EventGeneral, Date: "2025-06-16", Start: "09:00"},
	}

	added, skipped, err := ImportEvents(ctx, events, incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)

	added, skipped, err = ImportEvents(ctx, events, incoming)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 2, skipped)
}
