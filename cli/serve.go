// ABOUTME: serve subcommand
// ABOUTME: Runs the REST API, change stream and reminder scheduler until the context ends
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/web"
)

// ServeCommand starts the HTTP server on the configured or --listen address.
func ServeCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", app.Config.Server.Listen, "Address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app.Users == nil {
		return fmt.Errorf("serve needs local storage; the %s backend is itself a client", app.Config.Storage.Backend)
	}
	issuer, err := auth.NewIssuer(app.Config.Server.JWTSecret)
	if err != nil {
		return fmt.Errorf("refusing to serve: set server.jwt_secret or CRMDESK_JWT_SECRET: %w", err)
	}

	log := logging.For("serve")
	svc := auth.NewService(app.Users, issuer)
	users, err := app.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		log.Warn("No users yet. Create one with: crmdesk crm user-add --username <name> --password <pw> --role Admin")
	}

	reminders := calendar.NewReminderScheduler(app.Events, app.Notifier, app.Location)
	if err := reminders.Start(app.Config.ReminderSchedule); err != nil {
		return err
	}
	defer reminders.Stop()

	srv := web.NewServer(web.Deps{
		Events:   app.Events,
		Tasks:    app.Tasks,
		Leads:    app.Leads,
		Deals:    app.Deals,
		Feed:     app.Feed,
		Notifier: app.Notifier,
		Auth:     svc,
		Users:    app.Users,
		Bus:      app.Bus,
		Location: app.Location,
		Now:      app.Now,
	})
	return srv.ListenAndServe(ctx, *listen)
}
