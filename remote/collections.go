// ABOUTME: Remote-backed repositories for events, tasks, leads and deals
// ABOUTME: Satisfy the same contracts as the local stores and publish changes on the bus
package remote

import (
	"context"
	"errors"
	"net/url"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

// Collection proxies CRUD for one resource path.
type Collection[T any] struct {
	client *Client
	bus    *broadcast.Bus
	path   string
	topic  string
	id     func(T) string
}

func newCollection[T any](c *Client, bus *broadcast.Bus, path, topic string, id func(T) string) *Collection[T] {
	return &Collection[T]{client: c, bus: bus, path: path, topic: topic, id: id}
}

func NewEvents(c *Client, bus *broadcast.Bus) *Collection[models.Event] {
	return newCollection(c, bus, "/calendar/events/", broadcast.TopicEvents, func(e models.Event) string { return e.ID })
}

func NewTasks(c *Client, bus *broadcast.Bus) *Collection[models.Task] {
	return newCollection(c, bus, "/tasks/", broadcast.TopicTasks, func(t models.Task) string { return t.ID })
}

func NewLeads(c *Client, bus *broadcast.Bus) *Collection[models.Lead] {
	return newCollection(c, bus, "/leads/", broadcast.TopicLeads, func(l models.Lead) string { return l.ID })
}

func NewDeals(c *Client, bus *broadcast.Bus) *Collection[models.Deal] {
	return newCollection(c, bus, "/deals/", broadcast.TopicDeals, func(d models.Deal) string { return d.ID })
}

func (r *Collection[T]) itemPath(id string) string {
	return r.path + url.PathEscape(id) + "/"
}

func (r *Collection[T]) publish(op broadcast.Op, id string) {
	r.bus.Publish(broadcast.Change{Topic: r.topic, Op: op, ID: id})
}

func (r *Collection[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.client.Do(ctx, "GET", r.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	err := r.client.Do(ctx, "GET", r.itemPath(id), nil, &out)
	return out, err
}

func (r *Collection[T]) Create(ctx context.Context, item T) (T, error) {
	var out T
	if err := r.client.Do(ctx, "POST", r.path, item, &out); err != nil {
		return out, err
	}
	r.publish(broadcast.OpCreated, r.id(out))
	return out, nil
}

// Update sends the full record as a PATCH. An unknown id is a no-op.
func (r *Collection[T]) Update(ctx context.Context, item T) error {
	id := r.id(item)
	err := r.client.Do(ctx, "PATCH", r.itemPath(id), item, nil)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	r.publish(broadcast.OpUpdated, id)
	return nil
}

// Remove deletes by id. An unknown id is a no-op.
func (r *Collection[T]) Remove(ctx context.Context, id string) error {
	err := r.client.Do(ctx, "DELETE", r.itemPath(id), nil, nil)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	r.publish(broadcast.OpRemoved, id)
	return nil
}

var (
	_ store.EventRepository = (*Collection[models.Event])(nil)
	_ store.TaskRepository  = (*Collection[models.Task])(nil)
	_ store.LeadRepository  = (*Collection[models.Lead])(nil)
	_ store.DealRepository  = (*Collection[models.Deal])(nil)
)
