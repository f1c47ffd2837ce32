// ABOUTME: iCalendar export and import for calendar events
// ABOUTME: Import expands RRULE/EXDATE recurrences inside a window and snaps starts onto grid slots
package calendar

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/teambition/rrule-go"
)

const (
	icsProductID = "-//manvote//crmdesk//EN"
	// maxOccurrences caps how many instances a single recurring VEVENT may expand to.
	maxOccurrences = 500
)

// ExportICS renders events as a VCALENDAR. Times are interpreted in loc.
func ExportICS(events []models.Event, loc *time.Location) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)

	stamp := time.Now().UTC()
	for _, e := range events {
		start, err := e.StartsAt(loc)
		if err != nil {
			return "", fmt.Errorf("event %s: %w", e.ID, err)
		}

		ve := cal.AddEvent(e.ID + "@crmdesk")
		ve.SetDtStampTime(stamp)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(time.Hour))
		ve.SetSummary(e.Title)
		if e.Desc != "" {
			ve.SetDescription(e.Desc)
		}
		ve.AddProperty(ical.ComponentPropertyCategories, string(e.Type))
		for _, a := range splitAttendees(e.Attendees) {
			if strings.Contains(a, "@") {
				ve.AddProperty(ical.ComponentPropertyAttendee, "mailto:"+a)
			}
		}
	}
	return cal.Serialize(), nil
}

func splitAttendees(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ImportStats reports what ParseICS kept and dropped.
type ImportStats struct {
	Parsed      int
	Occurrences int
	AllDay      int
	OutOfRange  int
}

// ParseICS reads VEVENTs from r and returns grid-ready events for occurrences in [from, to).
// All-day events and starts outside the grid hours are skipped.
func ParseICS(r io.Reader, from, to time.Time, loc *time.Location) ([]models.Event, ImportStats, error) {
	var stats ImportStats

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to parse calendar: %w", err)
	}

	log := logging.For("ics")
	var out []models.Event
	for _, ve := range cal.Events() {
		stats.Parsed++

		if isAllDay(ve) {
			stats.AllDay++
			continue
		}

		start, err := ve.GetStartAt()
		if err != nil {
			log.WithError(err).Warn("Skipping VEVENT without a usable DTSTART")
			continue
		}

		starts := []time.Time{start}
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			starts, err = expand(ve, p.Value, start, from, to)
			if err != nil {
				log.WithError(err).WithField("rrule", p.Value).Warn("Skipping VEVENT with unreadable RRULE")
				continue
			}
		}

		for _, s := range starts {
			if s.Before(from) || !s.Before(to) {
				continue
			}
			stats.Occurrences++

			e, ok := eventFromVEvent(ve, s.In(loc))
			if !ok {
				stats.OutOfRange++
				continue
			}
			out = append(out, e)
		}
	}

	SortEvents(out)
	return out, stats, nil
}

func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func expand(ve *ical.VEvent, raw string, start, from, to time.Time) ([]time.Time, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = start
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	var set rrule.Set
	set.RRule(rule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), start.Location()); err == nil {
				set.ExDate(t)
			}
		}
	}

	occ := set.Between(from.In(start.Location()), to.In(start.Location()), true)
	if len(occ) > maxOccurrences {
		occ = occ[:maxOccurrences]
	}
	return occ, nil
}

func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

func eventFromVEvent(ve *ical.VEvent, start time.Time) (models.Event, bool) {
	if start.Hour() < models.FirstHour || start.Hour() > models.LastHour {
		return models.Event{}, false
	}

	e := models.Event{
		Title:    propValue(ve, ical.ComponentPropertySummary),
		Type:     models.EventGeneral,
		Date:     start.Format(models.DateLayout),
		Start:    models.ClockForHour(start.Hour()),
		Duration: store.DefaultDuration,
		Desc:     propValue(ve, ical.ComponentPropertyDescription),
	}
	if e.Title == "" {
		e.Title = "(untitled)"
	}

	for _, cat := range strings.Split(propValue(ve, ical.ComponentPropertyCategories), ",") {
		if t := models.EventType(strings.ToLower(strings.TrimSpace(cat))); t.Valid() {
			e.Type = t
			break
		}
	}

	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		e.Duration = fmt.Sprintf("%d min", int(end.Sub(start).Minutes()))
	}

	var attendees []string
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		attendees = append(attendees, strings.TrimPrefix(strings.TrimPrefix(p.Value, "mailto:"), "MAILTO:"))
	}
	e.Attendees = strings.Join(attendees, ", ")

	return e, true
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// ImportEvents creates each event unless one with the same title, date and start already exists.
func ImportEvents(ctx context.Context, repo store.EventRepository, events []models.Event) (added, skipped int, err error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, 0, err
	}

	seen := make(map[string]bool, len(existing))
	key := func(e models.Event) string { return e.Title + "|" + e.Date + "|" + e.Start }
	for _, e := range existing {
		seen[key(e)] = true
	}

	for _, e := range events {
		if seen[key(e)] {
			skipped++
			continue
		}
		if _, err := repo.Create(ctx, e); err != nil {
			return added, skipped, fmt.Errorf("failed to import %q: %w", e.Title, err)
		}
		seen[key(e)] = true
		added++
	}
	return added, skipped, nil
}
