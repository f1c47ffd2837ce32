// ABOUTME: Event and task edit forms for the TUI
// ABOUTME: Validation errors from the stores are shown inline and keep the form open
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

type formKind int

const (
	formEvent formKind = iota
	formTask
)

type form struct {
	kind   formKind
	event  models.Event
	task   models.Task
	labels []string
	inputs []textinput.Model
	focus  int
	err    error
}

func newInput(label, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = label
	in.CharLimit = limit
	in.SetValue(value)
	return in
}

func newEventForm(e models.Event) *form {
	f := &form{kind: formEvent, event: e}
	f.add("Title", e.Title, 100)
	f.add("Type (meeting/event/reminder)", string(e.Type), 20)
	f.add("Date (YYYY-MM-DD)", e.Date, 10)
	f.add("Start (HH:00)", e.Start, 5)
	f.add("Duration", e.Duration, 20)
	f.add("Attendees", e.Attendees, 200)
	f.add("Description", e.Desc, 500)
	return f
}

func newTaskForm(t models.Task) *form {
	f := &form{kind: formTask, task: t}
	f.add("Title", t.Title, 100)
	f.add("Client", t.Client, 100)
	f.add("Priority (Low/Medium/High/Critical)", string(t.Priority), 20)
	f.add("Stage (To Do/In Progress/Review/Done)", string(t.Stage), 20)
	f.add("Due date (YYYY-MM-DD)", t.DueDate, 10)
	f.add("Description", t.Desc, 500)
	return f
}

func (f *form) add(label, value string, limit int) {
	f.labels = append(f.labels, label)
	f.inputs = append(f.inputs, newInput(label, value, limit))
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) focusCmd() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *form) title() string {
	switch {
	case f.kind == formEvent && f.event.ID == "":
		return "NEW EVENT"
	case f.kind == formEvent:
		return "EDIT EVENT"
	case f.task.ID == "":
		return "NEW TASK"
	default:
		return "EDIT TASK"
	}
}

// eventDraft copies the inputs over the event the form was opened with.
func (f *form) eventDraft() models.Event {
	e := f.event
	e.Title = f.value(0)
	e.Type = models.EventType(strings.ToLower(f.value(1)))
	e.Date = f.value(2)
	e.Start = f.value(3)
	e.Duration = f.value(4)
	e.Attendees = f.value(5)
	e.Desc = f.value(6)
	return e
}

func (f *form) taskDraft() (models.Task, error) {
	t := f.task
	t.Title = f.value(0)
	t.Client = f.value(1)

	priority, ok := models.ParsePriority(f.value(2))
	if !ok {
		return models.Task{}, fmt.Errorf("%w: unknown priority %q", store.ErrInvalid, f.value(2))
	}
	stage, ok := models.ParseStage(f.value(3))
	if !ok {
		return models.Task{}, fmt.Errorf("%w: unknown stage %q", store.ErrInvalid, f.value(3))
	}
	t.Priority = priority
	t.Stage = stage
	t.DueDate = f.value(4)
	t.Desc = f.value(5)
	return t, nil
}

func (m Model) renderFormView() string {
	var s strings.Builder
	f := m.form

	s.WriteString(titleStyle.Render(f.title()))
	s.WriteString("\n\n")

	for i, input := range f.inputs {
		if i == f.focus {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(dimStyle.Render(f.labels[i]))
		s.WriteString("\n  ")
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	if f.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(f.err.Error()))
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(strings.Join([]string{
		"Tab/↓: Next field",
		"Shift+Tab/↑: Previous",
		"Enter: Save",
		"Esc: Cancel",
	}, " • ")))
	return s.String()
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		m.mode = ModeBrowse
		return m, nil
	case "tab", "down":
		f.focus = (f.focus + 1) % len(f.inputs)
		return m, f.focusCmd()
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + len(f.inputs)) % len(f.inputs)
		return m, f.focusCmd()
	case "enter":
		if err := m.saveForm(); err != nil {
			f.err = err
			return m, nil
		}
		m.form = nil
		m.mode = ModeBrowse
		m.err = nil
		return m, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m *Model) saveForm() error {
	if m.form.kind == formEvent {
		_, err := m.cal.Save(m.ctx, m.form.eventDraft())
		return err
	}
	t, err := m.form.taskDraft()
	if err != nil {
		return err
	}
	_, err = m.board.Save(m.ctx, t)
	return err
}
