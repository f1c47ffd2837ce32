// ABOUTME: Calendar API client setup for Google Calendar integration
// ABOUTME: Wraps the Calendar service behind a small paging interface the importer consumes
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxResults = 250 // Google Calendar API max per page

// EventSource pages through calendar events between two instants.
type EventSource interface {
	ListEvents(ctx context.Context, from, to time.Time, pageToken string) (*calendar.Events, error)
}

// CalendarClient reads the primary calendar of the authorized account.
type CalendarClient struct {
	svc *calendar.Service
}

// NewCalendarClient creates a Google Calendar client from an OAuth token.
func NewCalendarClient(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*CalendarClient, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{svc: svc}, nil
}

// ListEvents returns one page of expanded single events, ordered by start.
func (c *CalendarClient) ListEvents(ctx context.Context, from, to time.Time, pageToken string) (*calendar.Events, error) {
	call := c.svc.Events.List("primary").
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}
