// ABOUTME: Sync CLI commands
// ABOUTME: Google Calendar import plus a combined status view with the charm link
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/manvote/crmdesk/charm"
	gsync "github.com/manvote/crmdesk/sync"
)

// SyncGoogleCommand imports upcoming Google Calendar events, authorizing first when no token is stored.
func SyncGoogleCommand(ctx context.Context, app *App, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("sync google", flag.ContinueOnError)
	days := fs.Int("days", 30, "How many days ahead to import")
	reauth := fs.Bool("reauth", false, "Run the authorization flow even if a token exists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	oauthCfg, err := gsync.NewOAuthConfig(app.Config.GoogleCredentials)
	if err != nil {
		return err
	}

	tokenPath := gsync.TokenPath()
	token, err := gsync.LoadToken(tokenPath)
	if err != nil || *reauth {
		if token, err = gsync.Authorize(ctx, oauthCfg, in, out); err != nil {
			return err
		}
		if err := gsync.SaveToken(tokenPath, token); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "\n✓ Token saved to %s\n", tokenPath)
	}

	client, err := gsync.NewCalendarClient(ctx, oauthCfg, token)
	if err != nil {
		return err
	}
	sqlDB, err := app.SyncDB()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Syncing Google Calendar...")
	result, err := gsync.ImportCalendar(ctx, client, app.Events, gsync.ImportOptions{
		DB:       sqlDB,
		Location: app.Location,
		Days:     *days,
		Now:      app.Now,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "✓ Fetched %d event(s), imported %d\n", result.Fetched, result.Imported)
	if result.Duplicates > 0 {
		_, _ = fmt.Fprintf(out, "  Skipped %d already imported\n", result.Duplicates)
	}
	for reason, count := range result.Skipped {
		_, _ = fmt.Fprintf(out, "  Skipped %d %s\n", count, reason)
	}
	return nil
}

// SyncStatusCommand prints the charm link state and the last Google import.
func SyncStatusCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	if err := charm.StatusCommand(args, out); err != nil {
		return err
	}

	sqlDB, err := app.SyncDB()
	if err != nil {
		return err
	}
	state, err := gsync.CalendarStatus(ctx, sqlDB)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "\nGoogle Calendar")
	_, _ = fmt.Fprintln(out, "───────────────")
	if state == nil {
		_, _ = fmt.Fprintln(out, "Never synced. Run: crmdesk sync google")
		return nil
	}
	_, _ = fmt.Fprintf(out, "Status:    %s\n", state.Status)
	if state.LastSyncTime != nil {
		_, _ = fmt.Fprintf(out, "Last sync: %s\n", state.LastSyncTime.In(app.Location).Format(time.RFC1123))
	}
	if state.ErrorMessage != "" {
		_, _ = fmt.Fprintf(out, "Error:     %s\n", state.ErrorMessage)
	}
	return nil
}
