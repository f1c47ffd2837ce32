// ABOUTME: Generic JSON-array collection persisted under one Resource key
// ABOUTME: Handles seed-if-empty, malformed-data reset, load-time migration and change publishing
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/logging"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
)

// NewID returns a monotonic, lexically sortable record id.
func NewID() string {
	return ulid.Make().String()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Spec describes how a Collection identifies, seeds and migrates its records.
type Spec[T any] struct {
	Key   string
	Topic string

	ID    func(T) string
	SetID func(*T, string)

	// Seed produces the known-good state written when the key is missing or unreadable.
	Seed func() []T
	// SeedWhenEmpty also seeds when the stored array is empty.
	SeedWhenEmpty bool

	// Clone deep-copies a record. Records without reference fields can leave it nil.
	Clone func(T) T

	// Migrate normalizes loaded records in place and reports whether anything changed.
	// Changes are written back once.
	Migrate func([]T) bool
}

// Collection reads its key from the resource at the start of every operation and writes
// the whole array back on every mutation, so handles sharing a resource see each other's writes.
type Collection[T any] struct {
	spec Spec[T]
	res  db.Resource
	bus  *broadcast.Bus
	log  *logrus.Entry

	mu    sync.Mutex
	items []T
}

func NewCollection[T any](res db.Resource, bus *broadcast.Bus, spec Spec[T]) *Collection[T] {
	return &Collection[T]{
		spec: spec,
		res:  res,
		bus:  bus,
		log:  logging.For("store").WithField("key", spec.Key),
	}
}

func (c *Collection[T]) seed() []T {
	if c.spec.Seed == nil {
		return []T{}
	}
	items := c.spec.Seed()
	if items == nil {
		return []T{}
	}
	return items
}

// load reads the resource. Caller holds mu.
func (c *Collection[T]) load(ctx context.Context) error {
	data, err := c.res.Get(ctx, c.spec.Key)
	reset := false
	var items []T

	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		reset = true
	case err != nil:
		return fmt.Errorf("failed to load %s: %w", c.spec.Key, err)
	default:
		if jerr := json.Unmarshal(data, &items); jerr != nil {
			c.log.WithError(jerr).Warn("Stored collection is malformed, resetting to seed")
			reset = true
		} else if len(items) == 0 && c.spec.SeedWhenEmpty {
			reset = true
		}
	}

	if reset {
		items = c.seed()
	}
	if items == nil {
		items = []T{}
	}

	migrated := false
	if c.spec.Migrate != nil {
		migrated = c.spec.Migrate(items)
	}

	if reset || migrated {
		if err := c.persist(ctx, items); err != nil {
			return err
		}
		if migrated {
			c.log.Info("Migrated stored records")
		}
	}

	c.items = items

	if reset {
		c.publish(broadcast.OpReset, "")
	}
	return nil
}

// ensure refreshes items from the resource. Caller holds mu.
func (c *Collection[T]) ensure(ctx context.Context) error {
	return c.load(ctx)
}

func (c *Collection[T]) persist(ctx context.Context, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.spec.Key, err)
	}
	if err := c.res.Set(ctx, c.spec.Key, data); err != nil {
		return err
	}
	return nil
}

func (c *Collection[T]) publish(op broadcast.Op, id string) {
	c.bus.Publish(broadcast.Change{Topic: c.spec.Topic, Op: op, ID: id})
}

func (c *Collection[T]) copyOf(item T) T {
	if c.spec.Clone != nil {
		return c.spec.Clone(item)
	}
	return item
}

func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.items {
		if c.spec.ID(item) == id {
			return i
		}
	}
	return -1
}

// Reload reads the resource again, seeding or migrating it if needed.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// List returns every record in store order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return nil, err
	}

	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[i] = c.copyOf(item)
	}
	return out, nil
}

// Get returns the record with id or ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if err := c.ensure(ctx); err != nil {
		return zero, err
	}

	i := c.indexOf(id)
	if i < 0 {
		return zero, ErrNotFound
	}
	return c.copyOf(c.items[i]), nil
}

// Insert assigns a fresh id and stores item at the end, or at the front when prepend is set.
func (c *Collection[T]) Insert(ctx context.Context, item T, prepend bool) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if err := c.ensure(ctx); err != nil {
		return zero, err
	}

	item = c.copyOf(item)
	c.spec.SetID(&item, NewID())

	next := make([]T, 0, len(c.items)+1)
	if prepend {
		next = append(next, item)
		next = append(next, c.items...)
	} else {
		next = append(next, c.items...)
		next = append(next, item)
	}

	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	c.items = next
	c.publish(broadcast.OpCreated, c.spec.ID(item))
	return c.copyOf(item), nil
}

// Replace swaps the record sharing item's id. Unknown ids are a no-op and report false.
func (c *Collection[T]) Replace(ctx context.Context, item T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return false, err
	}

	id := c.spec.ID(item)
	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := make([]T, len(c.items))
	copy(next, c.items)
	next[i] = c.copyOf(item)

	if err := c.persist(ctx, next); err != nil {
		return false, err
	}
	c.items = next
	c.publish(broadcast.OpUpdated, id)
	return true, nil
}

// Remove drops the record with id. Unknown ids are a no-op and report false.
func (c *Collection[T]) Remove(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return false, err
	}

	next := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if c.spec.ID(item) != id {
			next = append(next, item)
		}
	}
	if len(next) == len(c.items) {
		return false, nil
	}

	if err := c.persist(ctx, next); err != nil {
		return false, err
	}
	c.items = next
	c.publish(broadcast.OpRemoved, id)
	return true, nil
}

// Truncate keeps only the first n records.
func (c *Collection[T]) Truncate(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensure(ctx); err != nil {
		return err
	}
	if len(c.items) <= n {
		return nil
	}

	next := append([]T(nil), c.items[:n]...)
	if err := c.persist(ctx, next); err != nil {
		return err
	}
	c.items = next
	return nil
}
