// ABOUTME: Minute-tick reminder scanner driven by robfig/cron
// ABOUTME: Fires when an event's date and start equal the current minute; missed minutes are not replayed
package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultReminderSchedule scans once a minute.
const DefaultReminderSchedule = "@every 1m"

// DueAt returns the events whose date and HH:MM start equal now's minute.
func DueAt(events []models.Event, now time.Time) []models.Event {
	day := now.Format(models.DateLayout)
	clock := now.Format(models.ClockLayout)

	var due []models.Event
	for _, e := range events {
		if e.Date == day && e.Start == clock {
			due = append(due, e)
		}
	}
	return due
}

// ReminderNotification builds the warning announced for a starting event.
func ReminderNotification(e models.Event) models.Notification {
	return notify.New(
		"Reminder: "+e.Title,
		fmt.Sprintf("Starting now: %s at %s", e.Type, e.Start),
		models.NotifyWarning,
	)
}

// ReminderScheduler runs Tick on a cron schedule until stopped.
type ReminderScheduler struct {
	events   store.EventRepository
	notifier notify.Notifier
	now      func() time.Time
	log      *logrus.Entry

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReminderScheduler(events store.EventRepository, notifier notify.Notifier, loc *time.Location) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		events:   events,
		notifier: notifier,
		now:      func() time.Time { return time.Now().In(loc) },
		log:      logging.For("reminders"),
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Tick scans every event once and notifies for each one starting this minute.
func (r *ReminderScheduler) Tick(ctx context.Context) (int, error) {
	events, err := r.events.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list events: %w", err)
	}

	due := DueAt(events, r.now())
	for _, e := range due {
		r.notifier.Notify(ctx, ReminderNotification(e))
	}
	if len(due) > 0 {
		r.log.WithField("count", len(due)).Info("Reminders fired")
	}
	return len(due), nil
}

// Start schedules Tick with spec, for example "@every 1m".
func (r *ReminderScheduler) Start(spec string) error {
	if spec == "" {
		spec = DefaultReminderSchedule
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := r.Tick(ctx); err != nil {
			r.log.WithError(err).Warn("Reminder scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	r.cron.Start()
	r.log.WithField("schedule", spec).Info("Reminder scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (r *ReminderScheduler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	<-r.cron.Stop().Done()
}
