package store

import (
	"context"
	"testing"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventStore(t *testing.T) (*EventStore, *countingResource) {
	t.Helper()
	res := newResource(t)
	return NewEventStore(res, broadcast.New(), WithClock(fixedClock)), res
}

func TestEventStoreSeedsRelativeToToday(t *testing.T) {
	s, _ := newEventStore(t)
	events, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Client Meeting", events[0].Title)
	assert.Equal(t, "2025-06-10", events[0].Date)
	assert.Equal(t, "bg-green-500", events[0].Color)
	assert.Equal(t, "Project Review", events[2].Title)
	assert.Equal(t, "2025-06-11", events[2].Date)
}

func TestEventStoreCreateAddsExactlyOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newEventStore(t)
	before, err := s.List(ctx)
	require.NoError(t, err)

	created, err := s.Create(ctx, models.Event{
		Title: "Standup", Type: models.EventMeeting, Date: "2025-06-10", Start: "09:00",
		Duration: "15 min", Attendees: "team@acme.example",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "10:00", created.End, "end is start plus one hour regardless of duration")
	assert.Equal(t, "15 min", created.Duration)
	assert.Equal(t, "bg-green-600", created.Color)

	after, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	matches := 0
	for _, e := range after {
		if e.ID == created.ID {
			matches++
			assert.Equal(t, created, e)
		}
	}
	assert.Equal(t, 1, matches)
	assert.Equal(t, before, after[:len(before)], "existing records untouched")
}

func TestEventStoreUpdateReplacesOnlyTarget(t *testing.T) {
	ctx := context.Background()
	s, _ := newEventStore(t)
	before, err := s.List(ctx)
	require.NoError(t, err)

	edited := before[1]
	edited.Title = "Team Sync (moved)"
	edited.Start = "15:00"
	edited.Type = models.EventReminder
	require.NoError(t, s.Update(ctx, edited))

	after, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.Equal(t, "Team Sync (moved)", after[1].Title)
	assert.Equal(t, "15:00", after[1].Start)
	assert.Equal(t, "16:00", after[1].End)
	assert.Equal(t, "bg-orange-500", after[1].Color)
}

func TestEventStoreUpdateUnknownIsSilent(t *testing.T) {
	ctx := context.Background()
	s, res := newEventStore(t)
	before, err := s.List(ctx)
	require.NoError(t, err)
	writes := res.setCount()

	err = s.Update(ctx, models.Event{ID: "nope", Title: "Ghost", Date: "2025-06-10", Start: "09:00"})
	require.NoError(t, err)

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, writes, res.setCount())
}

func TestEventStoreUpdateUnknownWithInvalidPayloadIsSilent(t *testing.T) {
	ctx := context.Background()
	s, res := newEventStore(t)
	_, err := s.List(ctx)
	require.NoError(t, err)
	writes := res.setCount()

	err = s.Update(ctx, models.Event{ID: "nope", Title: "", Date: "bad", Start: "23:30"})
	assert.NoError(t, err)
	assert.Equal(t, writes, res.setCount())

	events, err := s.List(ctx)
	require.NoError(t, err)
	bad := events[0]
	bad.Start = "23:30"
	assert.ErrorIs(t, s.Update(ctx, bad), ErrInvalid)
}

func TestEventStoreRemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newEventStore(t)
	before, err := s.List(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, before[1].ID))

	after, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Event{before[0], before[2]}, after)
}

func TestEventStoreListByDate(t *testing.T) {
	s, _ := newEventStore(t)
	events, err := s.ListByDate(context.Background(), "2025-06-10")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEventStoreListInRange(t *testing.T) {
	ctx := context.Background()
	s, _ := newEventStore(t)

	events, err := s.ListInRange(ctx, "2025-06-10", "2025-06-11")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Client Meeting", events[0].Title)

	events, err = s.ListInRange(ctx, "2025-06-11", "2025-06-11")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Project Review", events[0].Title)

	events, err = s.ListInRange(ctx, "2025-06-12", "2025-06-30")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPrepareEventValidation(t *testing.T) {
	cases := []struct {
		name  string
		event models.Event
	}{
		{"missing title", models.Event{Date: "2025-06-10", Start: "09:00"}},
		{"bad type", models.Event{Title: "x", Type: "party", Date: "2025-06-10", Start: "09:00"}},
		{"bad date", models.Event{Title: "x", Date: "10/06/2025", Start: "09:00"}},
		{"not on the hour", models.Event{Title: "x", Date: "2025-06-10", Start: "09:30"}},
		{"before range", models.Event{Title: "x", Date: "2025-06-10", Start: "06:00"}},
		{"after range", models.Event{Title: "x", Date: "2025-06-10", Start: "22:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.event
			assert.ErrorIs(t, PrepareEvent(&e), ErrInvalid)
		})
	}

	e := models.Event{Title: "  Late call ", Date: "2025-06-10", Start: "21:00"}
	require.NoError(t, PrepareEvent(&e))
	assert.Equal(t, "Late call", e.Title)
	assert.Equal(t, models.EventMeeting, e.Type)
	assert.Equal(t, "22:00", e.End)
	assert.Equal(t, DefaultDuration, e.Duration)
}

func TestEventStorePublishesChanges(t *testing.T) {
	ctx := context.Background()
	bus := broadcast.New()
	s := NewEventStore(newResource(t), bus, WithClock(fixedClock))
	_, err := s.List(ctx)
	require.NoError(t, err)

	ch, cancel := bus.Subscribe(broadcast.TopicEvents)
	defer cancel()

	created, err := s.Create(ctx, models.Event{Title: "Demo", Date: "2025-06-12", Start: "11:00"})
	require.NoError(t, err)

	change := <-ch
	assert.Equal(t, broadcast.OpCreated, change.Op)
	assert.Equal(t, created.ID, change.ID)
}
