// ABOUTME: Topic-based publish/subscribe bus for collection change signals
// ABOUTME: Publishing never blocks; slow subscribers drop changes
package broadcast

import (
	"sync"
	"time"
)

// Collection topics.
const (
	TopicEvents        = "events"
	TopicTasks         = "tasks"
	TopicLeads         = "leads"
	TopicDeals         = "deals"
	TopicNotifications = "notifications"
	TopicUsers         = "users"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpRemoved Op = "removed"
	OpReset   Op = "reset"
)

// Change tells subscribers that a collection was mutated.
type Change struct {
	Topic string    `json:"topic"`
	Op    Op        `json:"op"`
	ID    string    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

const subscriberBuffer = 32

type subscriber struct {
	ch     chan Change
	topics map[string]bool
}

func (s *subscriber) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// Bus fans changes out to subscribers. The zero value is not usable; call New.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
}

func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel of changes on the given topics, or on every topic when none are given.
// The cancel func closes the channel and must be called once the subscriber stops reading.
func (b *Bus) Subscribe(topics ...string) (<-chan Change, func()) {
	sub := &subscriber{
		ch:     make(chan Change, subscriberBuffer),
		topics: make(map[string]bool, len(topics)),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers c to every interested subscriber without blocking.
// A nil Bus discards the change.
func (b *Bus) Publish(c Change) {
	if b == nil {
		return
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(c.Topic) {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
