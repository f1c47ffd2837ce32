// ABOUTME: Repository contracts satisfied by both local and remote stores
// ABOUTME: Controllers and surfaces depend on these instead of a concrete backend
package store

import (
	"context"
	"time"

	"github.com/manvote/crmdesk/models"
)

// EventRepository is the calendar event store contract.
type EventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	Get(ctx context.Context, id string) (models.Event, error)
	Create(ctx context.Context, e models.Event) (models.Event, error)
	Update(ctx context.Context, e models.Event) error
	Remove(ctx context.Context, id string) error
}

// TaskRepository is the task store contract.
type TaskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (models.Task, error)
	Create(ctx context.Context, t models.Task) (models.Task, error)
	Update(ctx context.Context, t models.Task) error
	Remove(ctx context.Context, id string) error
}

// LeadRepository is the lead store contract.
type LeadRepository interface {
	List(ctx context.Context) ([]models.Lead, error)
	Get(ctx context.Context, id string) (models.Lead, error)
	Create(ctx context.Context, l models.Lead) (models.Lead, error)
	Update(ctx context.Context, l models.Lead) error
	Remove(ctx context.Context, id string) error
}

// DealRepository is the deal store contract.
type DealRepository interface {
	List(ctx context.Context) ([]models.Deal, error)
	Get(ctx context.Context, id string) (models.Deal, error)
	Create(ctx context.Context, d models.Deal) (models.Deal, error)
	Update(ctx context.Context, d models.Deal) error
	Remove(ctx context.Context, id string) error
}

type options struct {
	now func() time.Time
}

// Option configures a local store.
type Option func(*options)

// WithClock overrides the time source used for seeds and created timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
