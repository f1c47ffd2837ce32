// ABOUTME: User management CLI command
// ABOUTME: Registers API users with a hashed password and a role
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/models"
)

// UserAddCommand creates a login for the REST API.
func UserAddCommand(ctx context.Context, app *App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("user-add", flag.ContinueOnError)
	username := fs.String("username", "", "Login name (required)")
	name := fs.String("name", "", "Display name")
	password := fs.String("password", "", "Password (required)")
	role := fs.String("role", string(models.RoleSales), "Admin, Manager or Sales")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app.Users == nil {
		return fmt.Errorf("users are managed by the remote server on the %s backend", app.Config.Storage.Backend)
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	// Registering never signs tokens.
	svc := auth.NewService(app.Users, nil)
	u, err := svc.Register(ctx, *username, *name, *password, models.Role(*role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ User created: %s (%s)\n", u.Username, u.Role)
	return nil
}
