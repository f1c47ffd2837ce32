// ABOUTME: Calendar event store over a Resource collection
// ABOUTME: Validates slot alignment and derives end and color before every write
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
)

const DefaultDuration = "60 min"

type EventStore struct {
	coll *Collection[models.Event]
}

func NewEventStore(res db.Resource, bus *broadcast.Bus, opts ...Option) *EventStore {
	o := buildOptions(opts)
	return &EventStore{
		coll: NewCollection(res, bus, Spec[models.Event]{
			Key:   db.KeyEvents,
			Topic: broadcast.TopicEvents,
			ID:    func(e models.Event) string { return e.ID },
			SetID: func(e *models.Event, id string) { e.ID = id },
			Seed:  func() []models.Event { return SeedEvents(o.now()) },
		}),
	}
}

// PrepareEvent validates e and fills its derived fields.
func PrepareEvent(e *models.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return invalid("title is required")
	}
	if e.Type == "" {
		e.Type = models.EventMeeting
	}
	if !e.Type.Valid() {
		return invalid("unknown event type %q", e.Type)
	}
	if _, err := time.Parse(models.DateLayout, e.Date); err != nil {
		return invalid("date must be YYYY-MM-DD, got %q", e.Date)
	}

	start, err := time.Parse(models.ClockLayout, e.Start)
	if err != nil {
		return invalid("start must be HH:MM, got %q", e.Start)
	}
	if start.Minute() != 0 {
		return invalid("start must be on the hour, got %q", e.Start)
	}
	if start.Hour() < models.FirstHour || start.Hour() > models.LastHour {
		return invalid("start must be between %s and %s, got %q",
			models.ClockForHour(models.FirstHour), models.ClockForHour(models.LastHour), e.Start)
	}
	e.Start = models.ClockForHour(start.Hour())
	e.End, _ = models.EndAfterStart(e.Start)

	if strings.TrimSpace(e.Duration) == "" {
		e.Duration = DefaultDuration
	}
	e.Color = models.EventColor(e.Type)
	return nil
}

func (s *EventStore) List(ctx context.Context) ([]models.Event, error) {
	return s.coll.List(ctx)
}

func (s *EventStore) Get(ctx context.Context, id string) (models.Event, error) {
	return s.coll.Get(ctx, id)
}

// ListByDate returns events on date in store order.
func (s *EventStore) ListByDate(ctx context.Context, date string) ([]models.Event, error) {
	all, err := s.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Event
	for _, e := range all {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListInRange returns events dated from..to, both inclusive (YYYY-MM-DD), in store order.
func (s *EventStore) ListInRange(ctx context.Context, from, to string) ([]models.Event, error) {
	all, err := s.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Event
	for _, e := range all {
		if e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create assigns a new id and appends the event.
func (s *EventStore) Create(ctx context.Context, e models.Event) (models.Event, error) {
	if err := PrepareEvent(&e); err != nil {
		return models.Event{}, err
	}
	return s.coll.Insert(ctx, e, false)
}

// Update replaces the event in place. Unknown ids are ignored before any validation.
func (s *EventStore) Update(ctx context.Context, e models.Event) error {
	if _, err := s.coll.Get(ctx, e.ID); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	if err := PrepareEvent(&e); err != nil {
		return err
	}
	_, err := s.coll.Replace(ctx, e)
	return err
}

func (s *EventStore) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Remove(ctx, id)
	return err
}

func (s *EventStore) Reload(ctx context.Context) error {
	return s.coll.Reload(ctx)
}
