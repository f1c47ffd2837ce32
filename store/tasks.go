// ABOUTME: Task store with load-time enrichment written back to the resource
// ABOUTME: New tasks are prepended so the newest appears first
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
)

// Enrichment defaults for records that predate a field.
const (
	DefaultClient        = "General"
	DefaultPriorityColor = "bg-yellow-100 text-yellow-600"
)

var DefaultAssignee = models.Assignee{Initials: "U", Color: "bg-gray-400"}

type TaskStore struct {
	coll *Collection[models.Task]
	now  func() time.Time
}

func NewTaskStore(res db.Resource, bus *broadcast.Bus, opts ...Option) *TaskStore {
	o := buildOptions(opts)
	return &TaskStore{
		now: o.now,
		coll: NewCollection(res, bus, Spec[models.Task]{
			Key:           db.KeyTasks,
			Topic:         broadcast.TopicTasks,
			ID:            func(t models.Task) string { return t.ID },
			SetID:         func(t *models.Task, id string) { t.ID = id },
			Seed:          SeedTasks,
			SeedWhenEmpty: true,
			Clone:         models.Task.Clone,
			Migrate:       enrichAll,
		}),
	}
}

// EnrichTask fills defaults for missing fields and reports whether it changed anything.
func EnrichTask(t *models.Task) bool {
	changed := false
	if t.Client == "" {
		t.Client = DefaultClient
		changed = true
	}
	if len(t.Assignee) == 0 {
		t.Assignee = []models.Assignee{DefaultAssignee}
		changed = true
	}
	if t.Stage == "" {
		t.Stage = models.StageTodo
		changed = true
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
		changed = true
	}
	if t.PriorityColor == "" {
		t.PriorityColor = DefaultPriorityColor
		changed = true
	}
	if t.Activity.CommentsList == nil {
		t.Activity.CommentsList = []models.Comment{}
		changed = true
	}
	if t.Activity.AttachmentsList == nil {
		t.Activity.AttachmentsList = []models.Attachment{}
		changed = true
	}
	return changed
}

func enrichAll(tasks []models.Task) bool {
	changed := false
	for i := range tasks {
		if EnrichTask(&tasks[i]) {
			changed = true
		}
	}
	return changed
}

func validateTask(t *models.Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return invalid("title is required")
	}
	if !t.Stage.Valid() {
		return invalid("unknown stage %q", t.Stage)
	}
	if !t.Priority.Valid() {
		return invalid("unknown priority %q", t.Priority)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(models.DateLayout, t.DueDate); err != nil {
			return invalid("dueDate must be YYYY-MM-DD, got %q", t.DueDate)
		}
	}
	return nil
}

func (s *TaskStore) List(ctx context.Context) ([]models.Task, error) {
	return s.coll.List(ctx)
}

func (s *TaskStore) Get(ctx context.Context, id string) (models.Task, error) {
	return s.coll.Get(ctx, id)
}

// Create enriches the task, derives its priority color, stamps createdOn and prepends it.
func (s *TaskStore) Create(ctx context.Context, t models.Task) (models.Task, error) {
	EnrichTask(&t)
	if err := validateTask(&t); err != nil {
		return models.Task{}, err
	}
	t.PriorityColor = models.PriorityColor(t.Priority)
	if t.CreatedOn == "" {
		t.CreatedOn = s.now().UTC().Format(time.RFC3339)
	}
	return s.coll.Insert(ctx, t, true)
}

// Update enriches and replaces the task in place. Unknown ids are ignored before any validation.
func (s *TaskStore) Update(ctx context.Context, t models.Task) error {
	if _, err := s.coll.Get(ctx, t.ID); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	EnrichTask(&t)
	if err := validateTask(&t); err != nil {
		return err
	}
	_, err := s.coll.Replace(ctx, t)
	return err
}

func (s *TaskStore) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Remove(ctx, id)
	return err
}

func (s *TaskStore) Reload(ctx context.Context) error {
	return s.coll.Reload(ctx)
}
