// ABOUTME: Task board screen for the TUI
// ABOUTME: Renders kanban and table layouts with tab, search and stage-move controls
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/models"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(24)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CRMDESK"))
	s.WriteString("\n")
	s.WriteString(m.renderScreenTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderBoardTabs())
	s.WriteString("\n")

	if m.mode == ModeSearch {
		s.WriteString("/ " + m.search.View())
	} else if q := m.board.Filter().Search; q != "" {
		s.WriteString(dimStyle.Render(fmt.Sprintf("search: %q (esc in / to clear)", q)))
	}
	s.WriteString("\n\n")

	if m.board.View() == board.ViewTable {
		s.WriteString(m.renderTaskTable())
	} else {
		s.WriteString(m.renderKanban())
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderBoardHelp())
	return s.String()
}

func (m Model) renderBoardTabs() string {
	stats := m.board.Stats()
	counts := map[board.Tab]int{
		board.TabTasks:     stats.Total,
		board.TabTodo:      stats.Todo,
		board.TabOverdue:   stats.Overdue,
		board.TabOngoing:   stats.Ongoing,
		board.TabCompleted: stats.Completed,
	}

	var rendered []string
	for _, tab := range board.Tabs {
		label := fmt.Sprintf("%s (%d)", tab, counts[tab])
		if tab == m.board.Filter().Tab {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderCard(t models.Task, selected bool) string {
	due := t.DueDate
	if due == "" {
		due = "no due date"
	}
	lines := []string{
		truncate(t.Title, 22),
		dimStyle.Render(truncate(t.Client, 22)),
		fmt.Sprintf("%s · %s", t.Priority, due),
	}
	if t.IsOverdue(m.deps.Now()) {
		lines[2] = overdueStyle.Render(lines[2])
	}
	card := strings.Join(lines, "\n")
	if selected {
		card = selectedStyle.Render(card)
	}
	return card
}

func (m Model) renderKanban() string {
	var cols []string
	for i, col := range m.board.Columns() {
		var body []string
		body = append(body, fmt.Sprintf("%s (%d)", col.Stage, len(col.Tasks)))
		for j, t := range col.Tasks {
			body = append(body, "", m.renderCard(t, i == m.column && j == m.row))
		}
		style := columnStyle
		if i == m.column {
			style = activeColumnStyle
		}
		cols = append(cols, style.Render(strings.Join(body, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderTaskTable() string {
	columns := []table.Column{
		{Title: "Title", Width: 30},
		{Title: "Client", Width: 15},
		{Title: "Priority", Width: 10},
		{Title: "Stage", Width: 12},
		{Title: "Due", Width: 12},
	}

	var rows []table.Row
	for _, t := range m.board.Visible() {
		rows = append(rows, table.Row{t.Title, t.Client, string(t.Priority), string(t.Stage), t.DueDate})
	}

	height := m.height - 12
	if height < 5 {
		height = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.row < len(rows) {
		t.SetCursor(m.row)
	}
	return t.View()
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→: Column",
		"↑/↓: Card",
		"</>: Move card",
		"c: Tab",
		"/: Search",
		"v: Table/Kanban",
		"n: New",
		"Enter: Edit",
		"x: Delete",
		"Tab: Screen",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

// selectedTask returns the card under the cursor in the active layout.
func (m Model) selectedTask() (models.Task, bool) {
	if m.board.View() == board.ViewTable {
		visible := m.board.Visible()
		if m.row < len(visible) {
			return visible[m.row], true
		}
		return models.Task{}, false
	}
	cols := m.board.Columns()
	if m.column < len(cols) && m.row < len(cols[m.column].Tasks) {
		return cols[m.column].Tasks[m.row], true
	}
	return models.Task{}, false
}

func (m *Model) clampBoardCursor() {
	n := len(m.board.Visible())
	if m.board.View() == board.ViewKanban {
		cols := m.board.Columns()
		if m.column >= len(cols) {
			m.column = len(cols) - 1
		}
		n = len(cols[m.column].Tasks)
	}
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left":
		if m.column > 0 {
			m.column--
			m.row = 0
		}
	case "right":
		if m.column < len(models.Stages)-1 {
			m.column++
			m.row = 0
		}
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		m.row++
		m.clampBoardCursor()
	case "c":
		m.board.SetTab(m.board.Filter().Tab.Next())
		m.clampBoardCursor()
	case "v":
		if m.board.View() == board.ViewTable {
			m.board.SetView(board.ViewKanban)
		} else {
			m.board.SetView(board.ViewTable)
		}
		m.row = 0
	case "<":
		m.moveSelected(-1)
	case ">":
		m.moveSelected(1)
	case "/":
		m.mode = ModeSearch
		m.search.SetValue(m.board.Filter().Search)
		return m, tea.Batch(m.search.Focus(), textinput.Blink)
	case "n":
		stage := models.StageTodo
		if m.board.View() == board.ViewKanban {
			stage = models.Stages[m.column]
		}
		m.form = newTaskForm(models.Task{Priority: models.PriorityMedium, Stage: stage})
		m.mode = ModeForm
		return m, m.form.focusCmd()
	case "enter":
		if t, ok := m.selectedTask(); ok {
			m.form = newTaskForm(t)
			m.mode = ModeForm
			return m, m.form.focusCmd()
		}
	case "x":
		if t, ok := m.selectedTask(); ok {
			m.pendingTask = t.ID
			m.mode = ModeConfirmDelete
		}
	}
	return m, nil
}

// moveSelected shifts the selected card one stage left or right and keeps the cursor on it.
func (m *Model) moveSelected(dir int) {
	t, ok := m.selectedTask()
	if !ok {
		return
	}
	idx := -1
	for i, s := range models.Stages {
		if s == t.Stage {
			idx = i
		}
	}
	next := idx + dir
	if idx < 0 || next < 0 || next >= len(models.Stages) {
		return
	}

	m.err = m.board.Move(m.ctx, t.ID, models.Stages[next])
	if m.err != nil || m.board.View() != board.ViewKanban {
		return
	}
	m.column = next
	for i, moved := range m.board.Columns()[next].Tasks {
		if moved.ID == t.ID {
			m.row = i
		}
	}
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = ModeBrowse
		m.row = 0
		return m, nil
	case "esc":
		m.search.SetValue("")
		m.board.SetSearch("")
		m.search.Blur()
		m.mode = ModeBrowse
		m.row = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.board.SetSearch(m.search.Value())
	m.clampBoardCursor()
	return m, cmd
}
