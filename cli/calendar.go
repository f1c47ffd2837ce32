// ABOUTME: Calendar CLI commands
// ABOUTME: List, add and delete events, and inspect a single hour slot
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

// ListEventsCommand prints events for a day, a range, or the current week.
func ListEventsCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	date := fs.String("date", "", "Single day (YYYY-MM-DD)")
	from := fs.String("from", "", "Range start (YYYY-MM-DD)")
	to := fs.String("to", "", "Range end, inclusive (YYYY-MM-DD)")
	category := fs.String("category", "all", "all, events, meetings or reminders")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, ok := calendar.ParseCategory(*category)
	if !ok {
		return fmt.Errorf("unknown category %q", *category)
	}

	var start, end time.Time
	switch {
	case *date != "":
		d, err := time.ParseInLocation(models.DateLayout, *date, app.Location)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		start, end = d, d
	case *from != "" || *to != "":
		f, err := time.ParseInLocation(models.DateLayout, *from, app.Location)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		t, err := time.ParseInLocation(models.DateLayout, *to, app.Location)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		start, end = f, t
	default:
		start = calendar.StartOfWeek(app.Now())
		end = start.AddDate(0, 0, 6)
	}

	all, err := app.Events.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	var events []models.Event
	for _, e := range calendar.InRange(all, start, end) {
		if cat.Matches(e.Type) {
			events = append(events, e)
		}
	}

	if len(events) == 0 {
		_, _ = fmt.Fprintln(out, "No events found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tTIME\tTITLE\tTYPE\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t----\t--")
	for _, e := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%s\n", e.Date, e.Start, e.End, e.Title, e.Type, e.ID)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\nTotal: %d event(s)\n", len(events))
	return nil
}

// AddEventCommand schedules a new event on the hourly grid.
func AddEventCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-event", flag.ContinueOnError)
	title := fs.String("title", "", "Event title (required)")
	date := fs.String("date", "", "Day (YYYY-MM-DD, default today)")
	start := fs.String("start", "", "Start time on the hour, HH:00 (required)")
	typ := fs.String("type", string(models.EventMeeting), "meeting, event or reminder")
	duration := fs.String("duration", "", "Duration label (default 60 min)")
	attendees := fs.String("attendees", "", "Comma separated attendees")
	desc := fs.String("desc", "", "Description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	if *start == "" {
		return fmt.Errorf("--start is required")
	}
	if *date == "" {
		*date = app.Now().Format(models.DateLayout)
	}

	e, err := calendar.SaveEvent(ctx, app.Events, app.Notifier, models.Event{
		Title:     *title,
		Type:      models.EventType(*typ),
		Date:      *date,
		Start:     *start,
		Duration:  *duration,
		Attendees: *attendees,
		Desc:      *desc,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Event created: %s (ID: %s)\n", e.Title, e.ID)
	_, _ = fmt.Fprintf(out, "  When: %s %s-%s\n", e.Date, e.Start, e.End)
	_, _ = fmt.Fprintf(out, "  Type: %s\n", e.Type)
	return nil
}

// DeleteEventCommand removes an event by id.
func DeleteEventCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete-event", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: delete-event <id>")
	}

	e, err := app.Events.Get(ctx, fs.Arg(0))
	if errors.Is(err, store.ErrNotFound) {
		_, _ = fmt.Fprintf(out, "No event with ID %s\n", fs.Arg(0))
		return nil
	}
	if err != nil {
		return err
	}

	if err := calendar.DeleteEvent(ctx, app.Events, app.Notifier, e); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✓ Deleted event: %s\n", e.Title)
	return nil
}

// SlotCommand shows what occupies one hour cell.
func SlotCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("slot", flag.ContinueOnError)
	date := fs.String("date", "", "Day (YYYY-MM-DD, default today)")
	hour := fs.Int("hour", -1, "Hour between 7 and 21 (required)")
	category := fs.String("category", "all", "all, events, meetings or reminders")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *hour < models.FirstHour || *hour > models.LastHour {
		return fmt.Errorf("%w: --hour must be between %d and %d", calendar.ErrInvalidSlot, models.FirstHour, models.LastHour)
	}
	if *date == "" {
		*date = app.Now().Format(models.DateLayout)
	}
	cat, ok := calendar.ParseCategory(*category)
	if !ok {
		return fmt.Errorf("unknown category %q", *category)
	}

	events, err := app.Events.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	e, found := calendar.ResolveSlot(events, *date, *hour, cat)
	if !found {
		_, _ = fmt.Fprintf(out, "%s %s is free\n", *date, models.ClockForHour(*hour))
		return nil
	}
	_, _ = fmt.Fprintf(out, "%s %s-%s  %s (%s)\n", e.Date, e.Start, e.End, e.Title, e.Type)
	if e.Attendees != "" {
		_, _ = fmt.Fprintf(out, "  With: %s\n", e.Attendees)
	}
	if e.Desc != "" {
		_, _ = fmt.Fprintf(out, "  %s\n", e.Desc)
	}
	_, _ = fmt.Fprintf(out, "  ID: %s\n", e.ID)
	return nil
}
