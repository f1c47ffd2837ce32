// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Stages event and task deletions behind a y/n dialog
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

// pendingLabel describes what y would delete.
func (m Model) pendingLabel() (kind, name string) {
	if m.screen == ScreenBoard {
		for _, t := range m.board.Tasks() {
			if t.ID == m.pendingTask {
				return "task", t.Title
			}
		}
		return "task", m.pendingTask
	}
	if e, ok := m.cal.PendingDelete(); ok {
		return "event", fmt.Sprintf("%s (%s %s)", e.Title, e.Date, e.Start)
	}
	return "event", ""
}

func (m Model) renderConfirmDeleteView() string {
	kind, name := m.pendingLabel()

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", kind)
	entityInfo := fmt.Sprintf("\n%s\n", name)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if m.screen == ScreenBoard {
			m.err = m.board.Delete(m.ctx, m.pendingTask)
			m.pendingTask = ""
			m.clampBoardCursor()
		} else {
			m.err = m.cal.ConfirmDelete(m.ctx)
		}
		m.mode = ModeBrowse
	case "n", "N", "esc":
		m.cal.CancelDelete()
		m.pendingTask = ""
		m.mode = ModeBrowse
	}
	return m, nil
}
