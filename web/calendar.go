// ABOUTME: REST handlers for calendar events, week and month views, slots and ICS export
// ABOUTME: Date ranges resolve in the configured location before filtering stored events
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/calendar"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

// anchorDate reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) anchorDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.today(), nil
	}
	t, err := time.ParseInLocation(models.DateLayout, raw, s.deps.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalid)
	}
	return t, nil
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		events = calendar.ResolveDay(events, q.Get("date"), calendar.CategoryAll)
	case q.Get("from") != "" || q.Get("to") != "":
		from, err1 := time.ParseInLocation(models.DateLayout, q.Get("from"), s.deps.Location)
		to, err2 := time.ParseInLocation(models.DateLayout, q.Get("to"), s.deps.Location)
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "from and to must both be YYYY-MM-DD")
			return
		}
		events = calendar.InRange(events, from, to)
	}
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var e models.Event
	if err := decode(r, &e); err != nil {
		s.fail(w, err)
		return
	}
	e.ID = ""

	created, err := calendar.SaveEvent(r.Context(), s.deps.Events, s.deps.Notifier, e)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Events.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handlePatchEvent merges the body onto the stored event.
func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := s.deps.Events.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.ID = id

	saved, err := calendar.SaveEvent(r.Context(), s.deps.Events, s.deps.Notifier, e)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Events.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := calendar.DeleteEvent(r.Context(), s.deps.Events, s.deps.Notifier, e); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) eventsBetween(w http.ResponseWriter, r *http.Request, from, to time.Time) {
	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	out := calendar.InRange(events, from, to)
	if out == nil {
		out = []models.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":   from.Format(models.DateLayout),
		"to":     to.Format(models.DateLayout),
		"events": out,
	})
}

func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.anchorDate(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	start := calendar.StartOfWeek(anchor)
	s.eventsBetween(w, r, start, start.AddDate(0, 0, 6))
}

func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.anchorDate(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.eventsBetween(w, r, calendar.StartOfMonth(anchor), calendar.EndOfMonth(anchor))
}

func (s *Server) handleTodayEvents(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	s.eventsBetween(w, r, today, today)
}

func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	out := calendar.Upcoming(events, s.today(), limit)
	if out == nil {
		out = []models.Event{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSlot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := s.anchorDate(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	hour, err := strconv.Atoi(q.Get("hour"))
	if err != nil || hour < models.FirstHour || hour > models.LastHour {
		writeError(w, http.StatusBadRequest, "hour must be between 7 and 21")
		return
	}
	cat, ok := calendar.ParseCategory(q.Get("category"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := map[string]any{"date": day.Format(models.DateLayout), "hour": hour, "category": cat, "event": nil}
	if e, found := calendar.ResolveSlot(events, day.Format(models.DateLayout), hour, cat); found {
		resp["event"] = e
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	if claims := claimsFrom(r.Context()); claims == nil || !auth.Can(claims.Role, auth.PermExportData) {
		s.fail(w, auth.ErrForbidden)
		return
	}

	events, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	body, err := calendar.ExportICS(events, s.deps.Location)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="crmdesk.ics"`)
	_, _ = w.Write([]byte(body))
}
