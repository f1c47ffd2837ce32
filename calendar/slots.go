// ABOUTME: Slot resolution for the hourly calendar grid
// ABOUTME: A (date, hour) cell shows at most one event, the first match in store order
package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/manvote/crmdesk/models"
)

// Category is the tab filter applied to the grid.
type Category string

const (
	CategoryAll       Category = "All"
	CategoryEvents    Category = "Events"
	CategoryMeetings  Category = "Meetings"
	CategoryReminders Category = "Task Reminder"
)

// Categories lists the tabs in display order.
var Categories = []Category{CategoryAll, CategoryEvents, CategoryMeetings, CategoryReminders}

// ParseCategory accepts tab labels and short aliases, case-insensitively.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "all scheduled":
		return CategoryAll, true
	case "events", "event":
		return CategoryEvents, true
	case "meetings", "meeting":
		return CategoryMeetings, true
	case "task reminder", "task reminders", "reminders", "reminder":
		return CategoryReminders, true
	}
	return "", false
}

// Matches reports whether an event of type t shows under the category.
func (c Category) Matches(t models.EventType) bool {
	switch c {
	case CategoryEvents:
		return t == models.EventGeneral
	case CategoryMeetings:
		return t == models.EventMeeting
	case CategoryReminders:
		return t == models.EventReminder
	default:
		return true
	}
}

// Next returns the following tab, wrapping around.
func (c Category) Next() Category {
	for i, v := range Categories {
		if v == c {
			return Categories[(i+1)%len(Categories)]
		}
	}
	return CategoryAll
}

// ResolveSlot returns the first event on date starting in hour that passes the category filter.
// Later events sharing the slot are not surfaced.
func ResolveSlot(events []models.Event, date string, hour int, c Category) (models.Event, bool) {
	for _, e := range events {
		if e.Date != date || e.StartHour() != hour {
			continue
		}
		if !c.Matches(e.Type) {
			continue
		}
		return e, true
	}
	return models.Event{}, false
}

// ResolveDay returns the events on date passing the filter, ordered by start.
func ResolveDay(events []models.Event, date string, c Category) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.Date == date && c.Matches(e.Type) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// SortEvents orders events by date then start, keeping store order for ties.
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Start < events[j].Start
	})
}

// InRange returns events whose date falls within [from, to], both inclusive, sorted.
func InRange(events []models.Event, from, to time.Time) []models.Event {
	lo := from.Format(models.DateLayout)
	hi := to.Format(models.DateLayout)
	var out []models.Event
	for _, e := range events {
		if e.Date >= lo && e.Date <= hi {
			out = append(out, e)
		}
	}
	SortEvents(out)
	return out
}

// Upcoming returns events starting at or after now, soonest first, up to limit (0 for all).
func Upcoming(events []models.Event, now time.Time, limit int) []models.Event {
	var out []models.Event
	for _, e := range events {
		start, err := e.StartsAt(now.Location())
		if err != nil || start.Before(now.Truncate(time.Minute)) {
			continue
		}
		out = append(out, e)
	}
	SortEvents(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
