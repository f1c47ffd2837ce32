// ABOUTME: Calendar event importer from Google Calendar API
// ABOUTME: Pages upcoming primary-calendar events into the event store, skipping ones already imported
package sync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

const (
	calendarService = "google_calendar"
	defaultDays     = 30
)

// ImportOptions tunes an import run. DB is optional; without it there is no
// sync_state bookkeeping and no source-id dedupe.
type ImportOptions struct {
	DB       *sql.DB
	Location *time.Location
	Days     int
	Now      func() time.Time
}

// ImportResult summarizes a run.
type ImportResult struct {
	Fetched    int
	Imported   int
	Duplicates int
	Skipped    map[string]int
}

// shouldSkipEvent determines if an event should be skipped during import.
// Returns (true, reason) if the event should be skipped, (false, "") otherwise.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil"
	}
	if event.Start == nil {
		return true, "missing start time"
	}
	if event.Start.Date != "" {
		return true, "all-day"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}
	return false, ""
}

// pluralize returns "s" if count != 1, otherwise ""
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

// convertEvent maps a Google event onto the hourly grid. Events starting
// outside calendar hours are rejected.
func convertEvent(event *calendar.Event, loc *time.Location) (models.Event, bool) {
	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return models.Event{}, false
	}
	start = start.In(loc)
	if start.Hour() < models.FirstHour || start.Hour() > models.LastHour {
		return models.Event{}, false
	}

	e := models.Event{
		Title:    strings.TrimSpace(event.Summary),
		Type:     models.EventGeneral,
		Date:     start.Format(models.DateLayout),
		Start:    models.ClockForHour(start.Hour()),
		Duration: store.DefaultDuration,
		Desc:     event.Description,
	}
	if e.Title == "" {
		e.Title = "(untitled)"
	}

	if event.End != nil && event.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil && end.After(start) {
			e.Duration = fmt.Sprintf("%d min", int(end.Sub(start).Minutes()))
		}
	}

	var attendees []string
	for _, a := range event.Attendees {
		if a.Self || a.Email == "" {
			continue
		}
		attendees = append(attendees, a.Email)
	}
	if len(attendees) > 0 {
		e.Type = models.EventMeeting
		e.Attendees = strings.Join(attendees, ", ")
	}
	return e, true
}

// ImportCalendar pulls the next Days of primary-calendar events into events.
// An event is not created twice: neither for a Google id already in sync_log
// nor for a title, date and start already in the store.
func ImportCalendar(ctx context.Context, src EventSource, events store.EventRepository, opts ImportOptions) (ImportResult, error) {
	log := logging.For("sync").WithField("service", calendarService)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Days <= 0 {
		opts.Days = defaultDays
	}
	result := ImportResult{Skipped: map[string]int{}}

	fail := func(err error) (ImportResult, error) {
		if opts.DB != nil {
			_ = db.UpdateSyncStatus(ctx, opts.DB, calendarService, db.SyncError, err)
		}
		log.WithError(err).Error("Calendar import failed")
		return result, err
	}

	if opts.DB != nil {
		if err := db.UpdateSyncStatus(ctx, opts.DB, calendarService, db.SyncRunning, nil); err != nil {
			return result, fmt.Errorf("failed to update sync status: %w", err)
		}
	}

	existing, err := events.List(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to list events: %w", err))
	}
	key := func(e models.Event) string { return e.Title + "|" + e.Date + "|" + e.Start }
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[key(e)] = true
	}

	from := opts.Now()
	to := from.AddDate(0, 0, opts.Days)
	pageToken := ""
	page := 0

	for {
		resp, err := src.ListEvents(ctx, from, to, pageToken)
		if err != nil {
			return fail(fmt.Errorf("failed to fetch calendar events: %w", err))
		}
		page++
		result.Fetched += len(resp.Items)
		log.WithField("page", page).Debugf("Fetched %d events", len(resp.Items))

		for _, item := range resp.Items {
			if skip, reason := shouldSkipEvent(item); skip {
				result.Skipped[reason]++
				continue
			}

			if opts.DB != nil && item.Id != "" {
				local, err := db.LookupSyncLog(ctx, opts.DB, calendarService, item.Id)
				if err != nil {
					return fail(err)
				}
				if local != "" {
					result.Duplicates++
					continue
				}
			}

			e, ok := convertEvent(item, opts.Location)
			if !ok {
				result.Skipped["outside calendar hours"]++
				continue
			}
			if seen[key(e)] {
				result.Duplicates++
				continue
			}

			created, err := events.Create(ctx, e)
			if err != nil {
				return fail(fmt.Errorf("failed to import %q: %w", e.Title, err))
			}
			seen[key(created)] = true
			result.Imported++

			if opts.DB != nil && item.Id != "" {
				if err := db.RecordSyncLog(ctx, opts.DB, calendarService, item.Id, "event", created.ID); err != nil {
					return fail(err)
				}
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if opts.DB != nil {
		if err := db.UpdateSyncStatus(ctx, opts.DB, calendarService, db.SyncIdle, nil); err != nil {
			return result, fmt.Errorf("failed to update sync status: %w", err)
		}
	}

	entry := log.WithField("imported", result.Imported).WithField("duplicates", result.Duplicates)
	for reason, count := range result.Skipped {
		entry = entry.WithField("skipped_"+strings.ReplaceAll(reason, " ", "_"), count)
	}
	entry.Infof("Imported %d event%s from Google Calendar", result.Imported, pluralize(result.Imported))
	return result, nil
}

// CalendarStatus returns the last recorded run for the Google Calendar import.
func CalendarStatus(ctx context.Context, database *sql.DB) (*db.SyncState, error) {
	return db.GetSyncState(ctx, database, calendarService)
}
