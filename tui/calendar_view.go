// ABOUTME: Calendar screen for the TUI
// ABOUTME: Renders month, week, day and list layouts and handles slot selection and deletes
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
)

const cellWidth = 14

var calendarViews = []struct {
	view  calendar.View
	label string
}{
	{calendar.ViewMonth, "Month (m)"},
	{calendar.ViewWeek, "Week (w)"},
	{calendar.ViewDay, "Day (d)"},
	{calendar.ViewList, "List (l)"},
}

func (m Model) renderCalendarView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CRMDESK"))
	s.WriteString("\n")
	s.WriteString(m.renderScreenTabs())
	s.WriteString("\n\n")

	var views []string
	for _, v := range calendarViews {
		if v.view == m.cal.View() {
			views = append(views, tabActiveStyle.Render(v.label))
		} else {
			views = append(views, tabInactiveStyle.Render(v.label))
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, views...))
	s.WriteString("\n")

	var cats []string
	for _, c := range calendar.Categories {
		if c == m.cal.Category() {
			cats = append(cats, tabActiveStyle.Render(string(c)))
		} else {
			cats = append(cats, tabInactiveStyle.Render(string(c)))
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cats...))
	s.WriteString("\n\n")

	s.WriteString(todayStyle.Render(m.cal.Title()))
	s.WriteString("\n\n")

	events, err := m.cal.Events(m.ctx)
	if err != nil {
		s.WriteString(fmt.Sprintf("Error: %v", err))
	} else {
		switch m.cal.View() {
		case calendar.ViewMonth:
			s.WriteString(m.renderMonth(events))
		case calendar.ViewDay:
			s.WriteString(m.renderDay(events))
		case calendar.ViewList:
			s.WriteString(m.renderList())
		default:
			s.WriteString(m.renderWeek(events))
		}
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")
	s.WriteString(m.renderCalendarHelp())
	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	return lipgloss.NewStyle().Width(n).Render(truncate(s, n))
}

func (m Model) renderWeek(events []models.Event) string {
	var s strings.Builder
	current := m.cal.CurrentDate()
	today := m.deps.Now()

	s.WriteString(pad("", 7))
	for _, day := range m.cal.WeekDays() {
		label := pad(day.Format("Mon 1/2"), cellWidth)
		if calendar.SameDay(day, today) {
			label = todayStyle.Render(label)
		}
		s.WriteString(label)
	}
	s.WriteString("\n")

	for _, hour := range calendar.Hours() {
		s.WriteString(pad(models.ClockForHour(hour), 7))
		for _, day := range m.cal.WeekDays() {
			title := "·"
			if e, ok := calendar.ResolveSlot(events, day.Format(models.DateLayout), hour, m.cal.Category()); ok {
				title = e.Title
			}
			cell := pad(title, cellWidth)
			if calendar.SameDay(day, current) && hour == m.hour {
				cell = selectedStyle.Render(cell)
			}
			s.WriteString(cell)
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderDay(events []models.Event) string {
	var s strings.Builder
	date := m.cal.CurrentDate().Format(models.DateLayout)

	for _, hour := range calendar.Hours() {
		marker := "  "
		if hour == m.hour {
			marker = "▶ "
		}
		line := marker + models.ClockForHour(hour) + "  "
		if e, ok := calendar.ResolveSlot(events, date, hour, m.cal.Category()); ok {
			line += fmt.Sprintf("%s (%s) %s-%s", e.Title, e.Type, e.Start, e.End)
			if e.Attendees != "" {
				line += " with " + e.Attendees
			}
		} else {
			line += dimStyle.Render("free")
		}
		if hour == m.hour {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderMonth(events []models.Event) string {
	var s strings.Builder
	current := m.cal.CurrentDate()

	for _, name := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		s.WriteString(pad(name, cellWidth))
	}
	s.WriteString("\n")

	for _, week := range m.cal.MonthGrid() {
		lines := make([]string, 3)
		for _, day := range week {
			dayEvents := calendar.ResolveDay(events, day.Date.Format(models.DateLayout), m.cal.Category())

			cell := []string{pad(fmt.Sprintf("%d", day.Date.Day()), cellWidth)}
			for i := 0; i < 2; i++ {
				text := ""
				if i < len(dayEvents) {
					text = dayEvents[i].Start + " " + dayEvents[i].Title
				}
				if i == 1 && len(dayEvents) > 2 {
					text = fmt.Sprintf("+%d more", len(dayEvents)-1)
				}
				cell = append(cell, pad(text, cellWidth))
			}

			for i := range cell {
				switch {
				case calendar.SameDay(day.Date, current):
					cell[i] = selectedStyle.Render(cell[i])
				case day.IsToday:
					cell[i] = todayStyle.Render(cell[i])
				case !day.InMonth:
					cell[i] = dimStyle.Render(cell[i])
				}
				lines[i] += cell[i]
			}
		}
		s.WriteString(strings.Join(lines, "\n"))
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderList() string {
	groups, err := m.cal.ListGroups(m.ctx)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if len(groups) == 0 {
		return dimStyle.Render("No events this month") + "\n"
	}

	var s strings.Builder
	for _, g := range groups {
		label := g.Date
		if d, err := time.Parse(models.DateLayout, g.Date); err == nil {
			label = d.Format("Monday, January 2")
		}
		s.WriteString(todayStyle.Render(label))
		s.WriteString("\n")
		for _, e := range g.Events {
			s.WriteString(fmt.Sprintf("  %s-%s  %s (%s)\n", e.Start, e.End, e.Title, e.Type))
		}
	}
	return s.String()
}

func (m Model) renderCalendarHelp() string {
	help := []string{
		"←/→: Prev/Next",
		"[/]: Day",
		"↑/↓: Hour",
		"t: Today",
		"c: Category",
		"Enter: Open slot",
		"x: Delete",
		"Tab: Screen",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleCalendarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "m":
		m.cal.SetView(calendar.ViewMonth)
	case "w":
		m.cal.SetView(calendar.ViewWeek)
	case "d":
		m.cal.SetView(calendar.ViewDay)
	case "l":
		m.cal.SetView(calendar.ViewList)
	case "left":
		m.cal.Prev()
	case "right":
		m.cal.Next()
	case "[":
		m.cal.SetDate(m.cal.CurrentDate().AddDate(0, 0, -1))
	case "]":
		m.cal.SetDate(m.cal.CurrentDate().AddDate(0, 0, 1))
	case "t":
		m.cal.Today()
		m.hour = clampHour(m.deps.Now().Hour())
	case "c":
		m.cal.SetCategory(m.cal.Category().Next())
	case "up", "k":
		if m.hour > models.FirstHour {
			m.hour--
		}
	case "down", "j":
		if m.hour < models.LastHour {
			m.hour++
		}
	case "enter":
		return m.openSelectedSlot()
	case "x":
		return m.requestEventDelete()
	}
	return m, nil
}

func (m Model) openSelectedSlot() (tea.Model, tea.Cmd) {
	day := m.cal.CurrentDate()
	e, found, err := m.cal.Slot(m.ctx, day, m.hour)
	if err != nil {
		m.err = err
		return m, nil
	}
	if !found {
		if e, err = m.cal.OpenSlot(day, m.hour); err != nil {
			m.err = err
			return m, nil
		}
	}
	m.err = nil
	m.form = newEventForm(e)
	m.mode = ModeForm
	return m, m.form.focusCmd()
}

func (m Model) requestEventDelete() (tea.Model, tea.Cmd) {
	e, found, err := m.cal.Slot(m.ctx, m.cal.CurrentDate(), m.hour)
	if err != nil {
		m.err = err
		return m, nil
	}
	if !found {
		return m, nil
	}
	if _, err := m.cal.RequestDelete(m.ctx, e.ID); err != nil {
		m.err = err
		return m, nil
	}
	m.mode = ModeConfirmDelete
	return m, nil
}
