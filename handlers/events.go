// ABOUTME: Calendar MCP tool handlers
// ABOUTME: Implements list_events, create_event, update_event, delete_event and resolve_slot
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type EventHandlers struct {
	events   store.EventRepository
	notifier notify.Notifier
}

func NewEventHandlers(events store.EventRepository, notifier notify.Notifier) *EventHandlers {
	return &EventHandlers{events: events, notifier: notifier}
}

type ListEventsInput struct {
	Date     string `json:"date,omitempty" jsonschema:"Single day in YYYY-MM-DD format"`
	From     string `json:"from,omitempty" jsonschema:"Range start in YYYY-MM-DD format (inclusive)"`
	To       string `json:"to,omitempty" jsonschema:"Range end in YYYY-MM-DD format (inclusive)"`
	Category string `json:"category,omitempty" jsonschema:"Category filter: All, Events, Meetings or Task Reminder"`
}

type EventListOutput struct {
	Events []models.Event `json:"events"`
	Count  int            `json:"count"`
}

func (h *EventHandlers) ListEvents(ctx context.Context, _ *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, EventListOutput, error) {
	cat := calendar.CategoryAll
	if input.Category != "" {
		var ok bool
		if cat, ok = calendar.ParseCategory(input.Category); !ok {
			return nil, EventListOutput{}, fmt.Errorf("invalid category: %s (valid: All, Events, Meetings, Task Reminder)", input.Category)
		}
	}

	all, err := h.events.List(ctx)
	if err != nil {
		return nil, EventListOutput{}, fmt.Errorf("failed to list events: %w", err)
	}

	var events []models.Event
	switch {
	case input.Date != "":
		if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
			return nil, EventListOutput{}, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
		}
		events = calendar.ResolveDay(all, input.Date, cat)
	case input.From != "" || input.To != "":
		from, to, err := parseRange(input.From, input.To)
		if err != nil {
			return nil, EventListOutput{}, err
		}
		for _, e := range calendar.InRange(all, from, to) {
			if cat.Matches(e.Type) {
				events = append(events, e)
			}
		}
	default:
		for _, e := range all {
			if cat.Matches(e.Type) {
				events = append(events, e)
			}
		}
		calendar.SortEvents(events)
	}

	if events == nil {
		events = []models.Event{}
	}
	return nil, EventListOutput{Events: events, Count: len(events)}, nil
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("from and to must be given together")
	}
	from, err := time.Parse(models.DateLayout, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from (use YYYY-MM-DD): %w", err)
	}
	to, err := time.Parse(models.DateLayout, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to (use YYYY-MM-DD): %w", err)
	}
	return from, to, nil
}

type CreateEventInput struct {
	Title     string `json:"title" jsonschema:"Event title (required)"`
	Type      string `json:"type,omitempty" jsonschema:"Event type: meeting, event or reminder (default meeting)"`
	Date      string `json:"date" jsonschema:"Day in YYYY-MM-DD format (required)"`
	Start     string `json:"start" jsonschema:"Start time on the hour, HH:00 between 07:00 and 21:00 (required)"`
	Duration  string `json:"duration,omitempty" jsonschema:"Duration label such as 30 min (default 60 min)"`
	Desc      string `json:"desc,omitempty" jsonschema:"Description"`
	Attendees string `json:"attendees,omitempty" jsonschema:"Comma separated attendees"`
}

func (h *EventHandlers) CreateEvent(ctx context.Context, _ *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, models.Event, error) {
	draft := models.Event{
		Title:     input.Title,
		Type:      models.EventType(input.Type),
		Date:      input.Date,
		Start:     input.Start,
		Duration:  input.Duration,
		Desc:      input.Desc,
		Attendees: input.Attendees,
	}
	created, err := calendar.SaveEvent(ctx, h.events, h.notifier, draft)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	return nil, created, nil
}

type UpdateEventInput struct {
	ID        string  `json:"id" jsonschema:"Event ID (required)"`
	Title     *string `json:"title,omitempty" jsonschema:"New title"`
	Type      *string `json:"type,omitempty" jsonschema:"New type: meeting, event or reminder"`
	Date      *string `json:"date,omitempty" jsonschema:"New day in YYYY-MM-DD format"`
	Start     *string `json:"start,omitempty" jsonschema:"New start time, HH:00"`
	Duration  *string `json:"duration,omitempty" jsonschema:"New duration label"`
	Desc      *string `json:"desc,omitempty" jsonschema:"New description"`
	Attendees *string `json:"attendees,omitempty" jsonschema:"New attendees"`
}

func (h *EventHandlers) UpdateEvent(ctx context.Context, _ *mcp.CallToolRequest, input UpdateEventInput) (*mcp.CallToolResult, models.Event, error) {
	if input.ID == "" {
		return nil, models.Event{}, fmt.Errorf("id is required")
	}
	e, err := h.events.Get(ctx, input.ID)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("failed to fetch event: %w", err)
	}

	setIf(&e.Title, input.Title)
	setIf(&e.Date, input.Date)
	setIf(&e.Start, input.Start)
	setIf(&e.Duration, input.Duration)
	setIf(&e.Desc, input.Desc)
	setIf(&e.Attendees, input.Attendees)
	if input.Type != nil {
		e.Type = models.EventType(*input.Type)
	}

	saved, err := calendar.SaveEvent(ctx, h.events, h.notifier, e)
	if err != nil {
		return nil, models.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return nil, saved, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type DeleteEventInput struct {
	ID string `json:"id" jsonschema:"Event ID (required)"`
}

type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteEvent reports deleted=false for an unknown id instead of failing.
func (h *EventHandlers) DeleteEvent(ctx context.Context, _ *mcp.CallToolRequest, input DeleteEventInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if input.ID == "" {
		return nil, DeleteOutput{}, fmt.Errorf("id is required")
	}
	e, err := h.events.Get(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, DeleteOutput{ID: input.ID}, nil
	}
	if err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to fetch event: %w", err)
	}
	if err := calendar.DeleteEvent(ctx, h.events, h.notifier, e); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete event: %w", err)
	}
	return nil, DeleteOutput{ID: input.ID, Deleted: true}, nil
}

type ResolveSlotInput struct {
	Date     string `json:"date" jsonschema:"Day in YYYY-MM-DD format (required)"`
	Hour     int    `json:"hour" jsonschema:"Hour between 7 and 21 (required)"`
	Category string `json:"category,omitempty" jsonschema:"Category filter (default All)"`
}

type ResolveSlotOutput struct {
	Date  string        `json:"date"`
	Hour  int           `json:"hour"`
	Found bool          `json:"found"`
	Event *models.Event `json:"event,omitempty"`
}

func (h *EventHandlers) ResolveSlot(ctx context.Context, _ *mcp.CallToolRequest, input ResolveSlotInput) (*mcp.CallToolResult, ResolveSlotOutput, error) {
	if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
		return nil, ResolveSlotOutput{}, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
	}
	if input.Hour < models.FirstHour || input.Hour > models.LastHour {
		return nil, ResolveSlotOutput{}, fmt.Errorf("%w: hour %d", calendar.ErrInvalidSlot, input.Hour)
	}
	cat := calendar.CategoryAll
	if input.Category != "" {
		var ok bool
		if cat, ok = calendar.ParseCategory(input.Category); !ok {
			return nil, ResolveSlotOutput{}, fmt.Errorf("invalid category: %s", input.Category)
		}
	}

	all, err := h.events.List(ctx)
	if err != nil {
		return nil, ResolveSlotOutput{}, fmt.Errorf("failed to list events: %w", err)
	}
	out := ResolveSlotOutput{Date: input.Date, Hour: input.Hour}
	if e, ok := calendar.ResolveSlot(all, input.Date, input.Hour, cat); ok {
		out.Found = true
		out.Event = &e
	}
	return nil, out, nil
}
