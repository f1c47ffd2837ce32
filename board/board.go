// ABOUTME: Task board controller with tab, search and status filters plus Kanban moves
// ABOUTME: Stats are derived from the full task list on every call and never stored
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
)

// Tab is the coarse filter above the board.
type Tab string

const (
	TabTasks     Tab = "Tasks"
	TabTodo      Tab = "To Do"
	TabOverdue   Tab = "Overdue"
	TabOngoing   Tab = "Ongoing"
	TabCompleted Tab = "Completed"
)

var Tabs = []Tab{TabTasks, TabTodo, TabOverdue, TabOngoing, TabCompleted}

// ParseTab matches a tab label case-insensitively.
func ParseTab(s string) (Tab, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TabTasks, true
	}
	for _, t := range Tabs {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Next returns the following tab, wrapping around.
func (t Tab) Next() Tab {
	for i, v := range Tabs {
		if v == t {
			return Tabs[(i+1)%len(Tabs)]
		}
	}
	return TabTasks
}

// ViewMode selects table or Kanban layout.
type ViewMode string

const (
	ViewTable  ViewMode = "table"
	ViewKanban ViewMode = "kanban"
)

// FilterAll disables the status filter.
const FilterAll = "All"

type Stats struct {
	Total        int `json:"total"`
	Low          int `json:"low"`
	Medium       int `json:"medium"`
	High         int `json:"high"`
	NotCompleted int `json:"notCompleted"`
	Overdue      int `json:"overdue"`
	Todo         int `json:"todo"`
	Ongoing      int `json:"ongoing"`
	Completed    int `json:"completed"`
}

// ComputeStats counts tasks by priority and stage relative to today.
func ComputeStats(tasks []models.Task, today time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Priority {
		case models.PriorityLow:
			s.Low++
		case models.PriorityMedium:
			s.Medium++
		case models.PriorityHigh:
			s.High++
		}
		if t.Stage != models.StageDone {
			s.NotCompleted++
		}
		if t.IsOverdue(today) {
			s.Overdue++
		}
		switch t.Stage {
		case models.StageTodo:
			s.Todo++
		case models.StageInProgress, models.StageReview:
			s.Ongoing++
		case models.StageDone:
			s.Completed++
		}
	}
	return s
}

// Filter is the board's predicate set.
type Filter struct {
	Tab    Tab
	Search string
	Status string
}

func (f Filter) inTab(t models.Task, today time.Time) bool {
	switch f.Tab {
	case TabTodo:
		return t.Stage == models.StageTodo
	case TabOverdue:
		return t.IsOverdue(today)
	case TabOngoing:
		return t.Stage == models.StageInProgress || t.Stage == models.StageReview
	case TabCompleted:
		return t.Stage == models.StageDone
	default:
		return true
	}
}

func (f Filter) matchesSearch(t models.Task) bool {
	q := strings.ToLower(f.Search)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Desc), q) ||
		strings.Contains(strings.ToLower(t.Client), q)
}

func (f Filter) matchesStatus(t models.Task) bool {
	if f.Status == "" || f.Status == FilterAll {
		return true
	}
	return string(t.Priority) == f.Status || string(t.Stage) == f.Status
}

// Apply runs the tab filter, then search, then the status filter.
func (f Filter) Apply(tasks []models.Task, today time.Time) []models.Task {
	var byTab []models.Task
	for _, t := range tasks {
		if f.inTab(t, today) {
			byTab = append(byTab, t)
		}
	}

	out := make([]models.Task, 0, len(byTab))
	for _, t := range byTab {
		if f.matchesSearch(t) && f.matchesStatus(t) {
			out = append(out, t)
		}
	}
	return out
}

// Column is one Kanban lane.
type Column struct {
	Stage models.Stage
	Tasks []models.Task
}

// GroupColumns buckets tasks into the four stage lanes, preserving order within each.
func GroupColumns(tasks []models.Task) []Column {
	cols := make([]Column, len(models.Stages))
	idx := make(map[models.Stage]int, len(models.Stages))
	for i, s := range models.Stages {
		cols[i] = Column{Stage: s}
		idx[s] = i
	}
	for _, t := range tasks {
		if i, ok := idx[t.Stage]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

// Controller holds the board screen state over a local snapshot of the task list.
// It is not safe for concurrent use.
type Controller struct {
	repo     store.TaskRepository
	notifier notify.Notifier
	now      func() time.Time

	tasks  []models.Task
	filter Filter
	view   ViewMode
}

type Option func(*Controller)

func WithNow(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(repo store.TaskRepository, notifier notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		filter:   Filter{Tab: TabTasks, Status: FilterAll},
		view:     ViewKanban,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = notify.Multi{}
	}
	return c
}

// Refresh reloads the local snapshot from the store.
func (c *Controller) Refresh(ctx context.Context) error {
	tasks, err := c.repo.List(ctx)
	if err != nil {
		return err
	}
	c.tasks = tasks
	return nil
}

// Tasks returns the unfiltered snapshot.
func (c *Controller) Tasks() []models.Task { return c.tasks }

func (c *Controller) Filter() Filter { return c.filter }
func (c *Controller) View() ViewMode { return c.view }

func (c *Controller) SetSearch(q string) {
	c.filter.Search = q
}

func (c *Controller) SetFilterStatus(s string) {
	if s == "" {
		s = FilterAll
	}
	c.filter.Status = s
}

func (c *Controller) SetTab(t Tab) {
	c.filter.Tab = t
}

func (c *Controller) SetView(v ViewMode) {
	c.view = v
}

// Stats counts over the full snapshot, ignoring filters.
func (c *Controller) Stats() Stats {
	return ComputeStats(c.tasks, c.now())
}

// Visible returns the snapshot after the active filters.
func (c *Controller) Visible() []models.Task {
	return c.filter.Apply(c.tasks, c.now())
}

// Columns returns the visible tasks grouped into Kanban lanes.
func (c *Controller) Columns() []Column {
	return GroupColumns(c.Visible())
}

func (c *Controller) indexOf(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Move changes a task's stage in the snapshot first and then persists it.
// A failed write restores the snapshot and raises an error notification.
func (c *Controller) Move(ctx context.Context, id string, stage models.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", store.ErrInvalid, stage)
	}
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: task %s", store.ErrNotFound, id)
	}
	if c.tasks[i].Stage == stage {
		return nil
	}

	before := c.tasks
	moved := c.tasks[i].Clone()
	moved.Stage = stage

	next := make([]models.Task, len(before))
	copy(next, before)
	next[i] = moved
	c.tasks = next

	if err := c.repo.Update(ctx, moved); err != nil {
		c.tasks = before
		c.moveFailed(ctx, moved, err)
		return err
	}

	// Update is silent for ids the repository no longer holds.
	if _, err := c.repo.Get(ctx, id); errors.Is(err, store.ErrNotFound) {
		err = fmt.Errorf("%w: task %s was removed", store.ErrNotFound, id)
		if rerr := c.Refresh(ctx); rerr != nil {
			c.tasks = before
		}
		c.moveFailed(ctx, moved, err)
		return err
	}
	return nil
}

func (c *Controller) moveFailed(ctx context.Context, t models.Task, err error) {
	c.notifier.Notify(ctx, notify.New(
		"Move Failed",
		fmt.Sprintf("Could not move \"%s\" to %s: %v", t.Title, t.Stage, err),
		models.NotifyError,
	))
}

// Save creates a task without an id or edits an existing one, then refreshes.
func (c *Controller) Save(ctx context.Context, form models.Task) (models.Task, error) {
	saved, err := SaveTask(ctx, c.repo, form)
	if err != nil {
		return models.Task{}, err
	}
	return saved, c.Refresh(ctx)
}

// Delete removes a task and refreshes.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.repo.Remove(ctx, id); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Controller) AddComment(ctx context.Context, id, text string) (models.Comment, error) {
	comment, err := AddComment(ctx, c.repo, id, text, c.now())
	if err != nil {
		return models.Comment{}, err
	}
	return comment, c.Refresh(ctx)
}

func (c *Controller) AddAttachment(ctx context.Context, id string, file Upload) (models.Attachment, error) {
	att, err := AddAttachment(ctx, c.repo, id, file, c.now())
	if err != nil {
		return models.Attachment{}, err
	}
	return att, c.Refresh(ctx)
}

func (c *Controller) DeleteAttachment(ctx context.Context, id, attachmentID string) error {
	if err := DeleteAttachment(ctx, c.repo, id, attachmentID); err != nil {
		return err
	}
	return c.Refresh(ctx)
}
