// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Hosts the calendar, task board and dashboard screens and re-renders on store changes
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
)

// Screen is the top-level tab
type Screen int

const (
	ScreenCalendar Screen = iota
	ScreenBoard
	ScreenDashboard
)

var screenNames = []string{"Calendar", "Board", "Dashboard"}

// Mode is what the keyboard is currently driving
type Mode int

const (
	ModeBrowse Mode = iota
	ModeForm
	ModeSearch
	ModeConfirmDelete
)

// Deps are the stores the screens read and write. Leads and Deals are optional.
type Deps struct {
	Events   store.EventRepository
	Tasks    store.TaskRepository
	Leads    store.LeadRepository
	Deals    store.DealRepository
	Notifier notify.Notifier
	Bus      *broadcast.Bus
	Now      func() time.Time
}

// changeMsg carries a store mutation from the bus into the update loop
type changeMsg broadcast.Change

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	deps   Deps
	screen Screen
	mode   Mode

	cal    *calendar.Controller
	board  *board.Controller
	recent *notify.Recorder

	// Calendar cursor row; the cursor day is the controller's current date.
	hour int

	// Board cursor
	column      int
	row         int
	pendingTask string

	search textinput.Model
	form   *form

	changes <-chan broadcast.Change
	stop    func()

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model and subscribes it to store changes.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	recent := &notify.Recorder{}
	var notifier notify.Notifier = recent
	if deps.Notifier != nil {
		notifier = notify.Multi{deps.Notifier, recent}
	}

	search := textinput.New()
	search.Placeholder = "Search title, description or client"
	search.CharLimit = 100

	m := Model{
		ctx:    ctx,
		deps:   deps,
		cal:    calendar.NewController(deps.Events, notifier, calendar.WithNow(deps.Now)),
		board:  board.NewController(deps.Tasks, notifier, board.WithNow(deps.Now)),
		recent: recent,
		hour:   clampHour(deps.Now().Hour()),
		search: search,
		stop:   func() {},
		width:  80,
		height: 24,
	}
	if deps.Bus != nil {
		m.changes, m.stop = deps.Bus.Subscribe(
			broadcast.TopicEvents, broadcast.TopicTasks, broadcast.TopicLeads, broadcast.TopicDeals,
		)
	}
	m.err = m.board.Refresh(ctx)
	return m
}

// Close releases the bus subscription.
func (m Model) Close() {
	m.stop()
}

func clampHour(h int) int {
	if h < models.FirstHour {
		return models.FirstHour
	}
	if h > models.LastHour {
		return models.LastHour
	}
	return h
}

func waitForChange(ch <-chan broadcast.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case changeMsg:
		if msg.Topic == broadcast.TopicTasks {
			m.err = m.board.Refresh(m.ctx)
			m.clampBoardCursor()
		}
		return m, waitForChange(m.changes)
	}
	return m, nil
}

func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		return m.renderFormView()
	case ModeConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	switch m.screen {
	case ScreenBoard:
		return m.renderBoardView()
	case ScreenDashboard:
		return m.renderDashboardView()
	default:
		return m.renderCalendarView()
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.handleFormKeys(msg)
	case ModeSearch:
		return m.handleSearchKeys(msg)
	case ModeConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.stop()
		return m, tea.Quit
	case "tab":
		m.screen = (m.screen + 1) % Screen(len(screenNames))
		return m, nil
	}

	switch m.screen {
	case ScreenCalendar:
		return m.handleCalendarKeys(msg)
	case ScreenBoard:
		return m.handleBoardKeys(msg)
	}
	return m, nil
}

// lastNotice is the newest notification raised by this session.
func (m Model) lastNotice() string {
	n := m.recent.Last()
	if n.Title == "" {
		return ""
	}
	return n.Title + ": " + n.Message
}

func (m Model) renderScreenTabs() string {
	var rendered []string
	for i, name := range screenNames {
		if Screen(i) == m.screen {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if notice := m.lastNotice(); notice != "" {
		return statusStyle.Render(notice)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
