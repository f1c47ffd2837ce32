// ABOUTME: Calendar view controller holding navigation state and the edit flow
// ABOUTME: Saves and deletes go through the event store and announce themselves via the notifier
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
)

// View is the calendar layout.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
	ViewList  View = "list"
)

// ParseView accepts month, week, day or list.
func ParseView(s string) (View, bool) {
	switch View(s) {
	case ViewMonth, ViewWeek, ViewDay, ViewList:
		return View(s), true
	}
	return "", false
}

var (
	ErrInvalidSlot    = errors.New("slot is outside the calendar grid")
	ErrNothingPending = errors.New("no delete is awaiting confirmation")
)

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time
	InMonth bool
	IsToday bool
}

// DayGroup clusters the list view's events for one date.
type DayGroup struct {
	Date   string
	Events []models.Event
}

// Controller owns the calendar screen state. It is not safe for concurrent use.
type Controller struct {
	events   store.EventRepository
	notifier notify.Notifier
	now      func() time.Time

	current  time.Time
	mini     time.Time
	view     View
	category Category
	pending  *models.Event
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithNow overrides the clock.
func WithNow(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithView sets the initial view.
func WithView(v View) ControllerOption {
	return func(c *Controller) { c.view = v }
}

func NewController(events store.EventRepository, notifier notify.Notifier, opts ...ControllerOption) *Controller {
	c := &Controller{
		events:   events,
		notifier: notifier,
		now:      time.Now,
		view:     ViewWeek,
		category: CategoryAll,
	}
	for _, opt := range opts {
		opt(c)
	}
	if notifier == nil {
		c.notifier = notify.Multi{}
	}
	now := c.now()
	c.current = now
	c.mini = now
	return c
}

func (c *Controller) CurrentDate() time.Time { return c.current }
func (c *Controller) MiniDate() time.Time    { return c.mini }
func (c *Controller) View() View             { return c.view }
func (c *Controller) Category() Category     { return c.category }

func (c *Controller) SetView(v View) {
	c.view = v
}

func (c *Controller) SetCategory(cat Category) {
	c.category = cat
}

// SetDate jumps the main anchor to t.
func (c *Controller) SetDate(t time.Time) { c.current = t }

// Next steps the anchor forward by the current view's unit.
func (c *Controller) Next() { c.step(1) }

// Prev steps the anchor back by the current view's unit.
func (c *Controller) Prev() { c.step(-1) }

func (c *Controller) step(dir int) {
	switch c.view {
	case ViewWeek:
		c.current = c.current.AddDate(0, 0, 7*dir)
	case ViewDay:
		c.current = c.current.AddDate(0, 0, dir)
	default:
		c.current = AddMonths(c.current, dir)
	}
}

// Today resets both the main and mini anchors to now.
func (c *Controller) Today() {
	now := c.now()
	c.current = now
	c.mini = now
}

func (c *Controller) MiniNext() { c.mini = AddMonths(c.mini, 1) }
func (c *Controller) MiniPrev() { c.mini = AddMonths(c.mini, -1) }

// Title is the toolbar heading for the current view.
func (c *Controller) Title() string {
	switch c.view {
	case ViewWeek:
		days := c.WeekDays()
		return fmt.Sprintf("%s - %s", days[0].Format("Jan 2"), days[6].Format("Jan 2, 2006"))
	case ViewDay:
		return c.current.Format("Monday, January 2, 2006")
	default:
		return c.current.Format("January 2006")
	}
}

// Hours lists the grid rows.
func Hours() []int {
	hours := make([]int, 0, models.LastHour-models.FirstHour+1)
	for h := models.FirstHour; h <= models.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

func monthGrid(anchor, today time.Time) [][]Day {
	first := StartOfMonth(anchor)
	last := EndOfMonth(anchor)
	start := StartOfWeek(first)
	end := StartOfWeek(last).AddDate(0, 0, 6)

	var weeks [][]Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 7) {
		week := make([]Day, 7)
		for i := range week {
			day := d.AddDate(0, 0, i)
			week[i] = Day{
				Date:    day,
				InMonth: day.Month() == first.Month(),
				IsToday: SameDay(day, today),
			}
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// MonthGrid returns the full Sunday-start weeks covering the current month.
func (c *Controller) MonthGrid() [][]Day {
	return monthGrid(c.current, c.now())
}

// MiniGrid returns the month grid for the mini calendar anchor.
func (c *Controller) MiniGrid() [][]Day {
	return monthGrid(c.mini, c.now())
}

// WeekDays returns the seven days starting on the Sunday of the current week.
func (c *Controller) WeekDays() []time.Time {
	start := StartOfWeek(c.current)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// DayRange returns the single visible day.
func (c *Controller) DayRange() []time.Time {
	return []time.Time{dayStart(c.current)}
}

// VisibleRange returns the first and last dates shown by the current view.
func (c *Controller) VisibleRange() (time.Time, time.Time) {
	switch c.view {
	case ViewWeek:
		days := c.WeekDays()
		return days[0], days[6]
	case ViewDay:
		d := dayStart(c.current)
		return d, d
	case ViewList:
		return StartOfMonth(c.current), EndOfMonth(c.current)
	default:
		grid := c.MonthGrid()
		lastWeek := grid[len(grid)-1]
		return grid[0][0].Date, lastWeek[6].Date
	}
}

// ListGroups returns the current month's events sorted by date and start, grouped per day.
func (c *Controller) ListGroups(ctx context.Context) ([]DayGroup, error) {
	events, err := c.events.List(ctx)
	if err != nil {
		return nil, err
	}

	var filtered []models.Event
	for _, e := range InRange(events, StartOfMonth(c.current), EndOfMonth(c.current)) {
		if c.category.Matches(e.Type) {
			filtered = append(filtered, e)
		}
	}

	var groups []DayGroup
	for _, e := range filtered {
		if len(groups) == 0 || groups[len(groups)-1].Date != e.Date {
			groups = append(groups, DayGroup{Date: e.Date})
		}
		g := &groups[len(groups)-1]
		g.Events = append(g.Events, e)
	}
	return groups, nil
}

// Slot resolves the grid cell for day and hour under the active category.
func (c *Controller) Slot(ctx context.Context, day time.Time, hour int) (models.Event, bool, error) {
	events, err := c.events.List(ctx)
	if err != nil {
		return models.Event{}, false, err
	}
	e, ok := ResolveSlot(events, day.Format(models.DateLayout), hour, c.category)
	return e, ok, nil
}

// Events returns every stored event.
func (c *Controller) Events(ctx context.Context) ([]models.Event, error) {
	return c.events.List(ctx)
}

// OpenSlot returns an empty draft for a clicked grid cell.
func (c *Controller) OpenSlot(day time.Time, hour int) (models.Event, error) {
	if hour < models.FirstHour || hour > models.LastHour {
		return models.Event{}, fmt.Errorf("%w: hour %d", ErrInvalidSlot, hour)
	}
	return models.Event{
		Type:     models.EventMeeting,
		Date:     day.Format(models.DateLayout),
		Start:    models.ClockForHour(hour),
		Duration: store.DefaultDuration,
	}, nil
}

// OpenEvent returns a draft pre-filled from an existing event.
func (c *Controller) OpenEvent(ctx context.Context, id string) (models.Event, error) {
	return c.events.Get(ctx, id)
}

// Save creates the draft when it has no id and updates it otherwise, then notifies.
func (c *Controller) Save(ctx context.Context, draft models.Event) (models.Event, error) {
	return SaveEvent(ctx, c.events, c.notifier, draft)
}

// SaveEvent validates draft, creates it when it has no id and updates it otherwise.
// Updating an unknown id changes nothing and returns the draft without a notification.
func SaveEvent(ctx context.Context, events store.EventRepository, notifier notify.Notifier, draft models.Event) (models.Event, error) {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	if err := store.PrepareEvent(&draft); err != nil {
		return models.Event{}, err
	}

	if draft.ID == "" {
		created, err := events.Create(ctx, draft)
		if err != nil {
			return models.Event{}, err
		}
		notifier.Notify(ctx, notify.New(
			"New Event Created",
			fmt.Sprintf("Scheduled \"%s\" for %s at %s", created.Title, created.Date, created.Start),
			models.NotifySuccess,
		))
		return created, nil
	}

	if _, err := events.Get(ctx, draft.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return draft, nil
		}
		return models.Event{}, err
	}
	if err := events.Update(ctx, draft); err != nil {
		return models.Event{}, err
	}
	notifier.Notify(ctx, notify.New(
		"Event Updated",
		fmt.Sprintf("Updated \"%s\" on %s", draft.Title, draft.Date),
		models.NotifyInfo,
	))
	return draft, nil
}

// DeleteEvent removes e and notifies.
func DeleteEvent(ctx context.Context, events store.EventRepository, notifier notify.Notifier, e models.Event) error {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	if err := events.Remove(ctx, e.ID); err != nil {
		return err
	}
	notifier.Notify(ctx, notify.New(
		"Event Deleted",
		fmt.Sprintf("Removed \"%s\" from calendar.", e.Title),
		models.NotifyWarning,
	))
	return nil
}

// RequestDelete stages an event for deletion. Nothing is removed until ConfirmDelete.
func (c *Controller) RequestDelete(ctx context.Context, id string) (models.Event, error) {
	e, err := c.events.Get(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	c.pending = &e
	return e, nil
}

// PendingDelete returns the event awaiting confirmation.
func (c *Controller) PendingDelete() (models.Event, bool) {
	if c.pending == nil {
		return models.Event{}, false
	}
	return *c.pending, true
}

// CancelDelete drops the staged deletion.
func (c *Controller) CancelDelete() {
	c.pending = nil
}

// ConfirmDelete removes the staged event and notifies.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	if c.pending == nil {
		return ErrNothingPending
	}
	if err := DeleteEvent(ctx, c.events, c.notifier, *c.pending); err != nil {
		return err
	}
	c.pending = nil
	return nil
}
