// ABOUTME: Tests for the calendar, board and dashboard screens
// ABOUTME: Drives the model with key messages against seeded in-memory stores
package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

func testNow() time.Time {
	return time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC)
}

type fixture struct {
	events *store.EventStore
	tasks  *store.TaskStore
	bus    *broadcast.Bus
	model  Model
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mem, err := db.OpenInMemoryBadger()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	bus := broadcast.New()
	clock := store.WithClock(testNow)
	f := &fixture{
		events: store.NewEventStore(mem, bus, clock),
		tasks:  store.NewTaskStore(mem, bus, clock),
		bus:    bus,
	}
	f.model = NewModel(context.Background(), Deps{
		Events: f.events,
		Tasks:  f.tasks,
		Leads:  store.NewLeadStore(mem, bus, clock),
		Deals:  store.NewDealStore(mem, bus, clock),
		Bus:    bus,
		Now:    testNow,
	})
	t.Cleanup(f.model.Close)
	require.NoError(t, f.model.err)
	return f
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func TestCalendarViewKeys(t *testing.T) {
	f := setup(t)
	m := f.model

	assert.Equal(t, calendar.ViewWeek, m.cal.View())
	m = press(m, "m")
	assert.Equal(t, calendar.ViewMonth, m.cal.View())
	assert.Contains(t, m.View(), "June 2025")

	m = press(m, "right")
	assert.Equal(t, time.July, m.cal.CurrentDate().Month())
	m = press(m, "t", "d")
	assert.Equal(t, calendar.ViewDay, m.cal.View())
	assert.Contains(t, m.View(), "Tuesday, June 10, 2025")
	assert.Contains(t, m.View(), "Client Meeting (meeting) 10:00-11:00")

	m = press(m, "c", "c")
	assert.Equal(t, calendar.CategoryMeetings, m.cal.Category())
	assert.NotContains(t, m.View(), "Team Sync")

	m = press(m, "l")
	assert.Contains(t, m.View(), "Wednesday, June 11")
}

func TestCreateAndDeleteEventThroughForm(t *testing.T) {
	f := setup(t)
	m := f.model
	ctx := context.Background()

	assert.Equal(t, models.FirstHour+1, m.hour)
	m = press(m, "down", "enter")
	require.Equal(t, ModeForm, m.mode)
	assert.Equal(t, "2025-06-10", m.form.event.Date)
	assert.Equal(t, "09:00", m.form.event.Start)

	m = press(m, "S", "t", "a", "n", "d", "u", "p", "enter")
	require.Equal(t, ModeBrowse, m.mode)

	events, err := f.events.ListByDate(ctx, "2025-06-10")
	require.NoError(t, err)
	require.Len(t, events, 3)
	standup := events[2]
	assert.Equal(t, "Standup", standup.Title)
	assert.Equal(t, "10:00", standup.End)
	assert.Contains(t, m.View(), "New Event Created")

	m = press(m, "x")
	require.Equal(t, ModeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Standup (2025-06-10 09:00)")

	m = press(m, "n")
	assert.Equal(t, ModeBrowse, m.mode)
	_, err = f.events.Get(ctx, standup.ID)
	require.NoError(t, err)

	m = press(m, "x", "y")
	assert.Equal(t, ModeBrowse, m.mode)
	_, err = f.events.Get(ctx, standup.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "Event Deleted", m.recent.Last().Title)
}

func TestFormShowsValidationError(t *testing.T) {
	f := setup(t)
	m := press(f.model, "enter")
	require.Equal(t, ModeForm, m.mode)

	// Title left empty.
	m = press(m, "enter")
	assert.Equal(t, ModeForm, m.mode)
	require.Error(t, m.form.err)
	assert.ErrorIs(t, m.form.err, store.ErrInvalid)
	assert.Contains(t, m.View(), "title is required")

	m = press(m, "esc")
	assert.Equal(t, ModeBrowse, m.mode)
}

func TestBoardMoveAndSearch(t *testing.T) {
	f := setup(t)
	m := press(f.model, "tab")
	require.Equal(t, ScreenBoard, m.screen)
	assert.Contains(t, m.View(), "Client Meeting Prep")

	sel, ok := m.selectedTask()
	require.True(t, ok)
	assert.Equal(t, "1", sel.ID)

	m = press(m, ">")
	assert.Equal(t, 1, m.column)
	stored, err := f.tasks.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.StageInProgress, stored.Stage)

	m = press(m, "<", "<")
	stored, err = f.tasks.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, models.StageTodo, stored.Stage)

	m = press(m, "/", "g", "l", "o", "b", "e", "x", "enter")
	assert.Equal(t, ModeBrowse, m.mode)
	assert.Equal(t, "globex", m.board.Filter().Search)
	require.Len(t, m.board.Visible(), 1)
	assert.Equal(t, "3", m.board.Visible()[0].ID)

	m = press(m, "/", "esc")
	assert.Empty(t, m.board.Filter().Search)

	m = press(m, "c", "c")
	assert.Equal(t, board.TabOverdue, m.board.Filter().Tab)
}

func TestBoardCreateTask(t *testing.T) {
	f := setup(t)
	m := press(f.model, "tab", "right", "n")
	require.Equal(t, ModeForm, m.mode)
	assert.Equal(t, models.StageInProgress, m.form.task.Stage)

	m = press(m, "W", "r", "i", "t", "e", "enter")
	require.Equal(t, ModeBrowse, m.mode)

	tasks, err := f.tasks.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 5)
	created := tasks[0]
	assert.Equal(t, "Write", created.Title)
	assert.Equal(t, models.StageInProgress, created.Stage)
	assert.Equal(t, "bg-blue-100 text-blue-600", created.PriorityColor)
}

func TestBoardRefreshesOnBusChange(t *testing.T) {
	f := setup(t)
	m := f.model

	ch, cancel := f.bus.Subscribe(broadcast.TopicTasks)
	defer cancel()

	_, err := f.tasks.Create(context.Background(), models.Task{Title: "External", Priority: models.PriorityLow, Stage: models.StageTodo})
	require.NoError(t, err)

	change := <-ch
	next, cmd := m.Update(changeMsg(change))
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Len(t, m.board.Tasks(), 5)
}

func TestDashboardScreen(t *testing.T) {
	f := setup(t)
	m := press(f.model, "tab", "tab")
	require.Equal(t, ScreenDashboard, m.screen)
	assert.Contains(t, m.View(), "CRMDESK DASHBOARD")
}
