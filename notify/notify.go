// ABOUTME: Fire-and-forget notification surface for controllers
// ABOUTME: Feed persists recent notifications; LogNotifier mirrors them to the log
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/sirupsen/logrus"
)

// FeedLimit caps how many notifications the feed keeps.
const FeedLimit = 50

// Notifier accepts notifications. Implementations must not fail the caller.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

// New builds a notification, filling id and timestamp.
func New(title, message string, typ models.NotificationType) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
}

// Feed stores the most recent notifications newest first.
type Feed struct {
	coll *store.Collection[models.Notification]
	log  *logrus.Entry
}

func NewFeed(res db.Resource, bus *broadcast.Bus) *Feed {
	return &Feed{
		coll: store.NewCollection(res, bus, store.Spec[models.Notification]{
			Key:   db.KeyNotifications,
			Topic: broadcast.TopicNotifications,
			ID:    func(n models.Notification) string { return n.ID },
			SetID: func(n *models.Notification, id string) { n.ID = id },
		}),
		log: logging.For("notify"),
	}
}

func (f *Feed) Notify(ctx context.Context, n models.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := f.coll.Insert(ctx, n, true); err != nil {
		f.log.WithError(err).Warn("Failed to record notification")
		return
	}
	if err := f.coll.Truncate(ctx, FeedLimit); err != nil {
		f.log.WithError(err).Warn("Failed to trim notification feed")
	}
}

// Recent returns up to limit notifications, newest first.
func (f *Feed) Recent(ctx context.Context, limit int) ([]models.Notification, error) {
	all, err := f.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// LogNotifier writes notifications to the shared logger.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.For("notify")}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	entry := l.log.WithFields(logrus.Fields{"title": n.Title, "type": n.Type})
	switch n.Type {
	case models.NotifyError:
		entry.Error(n.Message)
	case models.NotifyWarning:
		entry.Warn(n.Message)
	default:
		entry.Info(n.Message)
	}
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n models.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// Recorder keeps notifications in memory. Useful for tests and the TUI status line.
type Recorder struct {
	Items []models.Notification
}

func (r *Recorder) Notify(_ context.Context, n models.Notification) {
	r.Items = append(r.Items, n)
}

// Last returns the most recent notification, or the zero value.
func (r *Recorder) Last() models.Notification {
	if len(r.Items) == 0 {
		return models.Notification{}
	}
	return r.Items[len(r.Items)-1]
}
