// ABOUTME: tui subcommand
// ABOUTME: Starts the bubbletea calendar and board on an interactive terminal
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/manvote/crmdesk/tui"
)

// TUICommand runs the terminal interface in the alternate screen.
func TUICommand(ctx context.Context, app *App) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs an interactive terminal")
	}

	m := tui.NewModel(ctx, tui.Deps{
		Events:   app.Events,
		Tasks:    app.Tasks,
		Leads:    app.Leads,
		Deals:    app.Deals,
		Notifier: app.Notifier,
		Bus:      app.Bus,
		Now:      app.Now,
	})
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
