// ABOUTME: iCalendar CLI commands
// ABOUTME: Export the calendar to .ics and import .ics files onto the hourly grid
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/manvote/crmdesk/calendar"
)

// ICSExportCommand writes every event as an iCalendar document.
func ICSExportCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ics export", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := app.Events.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	doc, err := calendar.ExportICS(events, app.Location)
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(doc), 0644); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✓ Exported %d event(s) to %s\n", len(events), *output)
		return nil
	}
	_, _ = fmt.Fprint(out, doc)
	return nil
}

// ICSImportCommand reads an .ics file and adds occurrences in the next --days days.
func ICSImportCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ics import", flag.ContinueOnError)
	days := fs.Int("days", 90, "How far ahead to expand recurring events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ics import [--days n] <file.ics>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fs.Arg(0), err)
	}
	defer func() { _ = f.Close() }()

	from := calendar.StartOfMonth(app.Now())
	to := app.Now().AddDate(0, 0, *days)
	events, stats, err := calendar.ParseICS(f, from, to, app.Location)
	if err != nil {
		return err
	}

	added, skipped, err := calendar.ImportEvents(ctx, app.Events, events)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Imported %d event(s)\n", added)
	if skipped > 0 {
		_, _ = fmt.Fprintf(out, "  Skipped %d already on the calendar\n", skipped)
	}
	if stats.AllDay > 0 {
		_, _ = fmt.Fprintf(out, "  Skipped %d all-day event(s)\n", stats.AllDay)
	}
	if stats.OutOfRange > 0 {
		_, _ = fmt.Fprintf(out, "  Skipped %d outside calendar hours\n", stats.OutOfRange)
	}
	return nil
}
