package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves a tiny events API and counts auth traffic.
type fakeBackend struct {
	mu         sync.Mutex
	validToken string
	logins     int
	refreshes  int
	eventHits  int
	alwaysDeny bool
	events     map[string]models.Event
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{validToken: "access-1", events: map[string]models.Event{
		"1": {ID: "1", Title: "Client Meeting", Type: models.EventMeeting, Date: "2025-06-10", Start: "10:00"},
	}}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.logins++
		writeJSON(w, http.StatusOK, map[string]string{"access": b.validToken, "refresh": "refresh-1"})
	}).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.refreshes++
		writeJSON(w, http.StatusOK, map[string]string{"access": b.validToken})
	}).Methods(http.MethodPost)

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.eventHits++
			ok := !b.alwaysDeny && r.Header.Get("Authorization") == "Bearer "+b.validToken
			b.mu.Unlock()
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
				return
			}
			next(w, r)
		}
	}

	api.HandleFunc("/calendar/events/", authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if r.Method == http.MethodPost {
			var e models.Event
			_ = json.NewDecoder(r.Body).Decode(&e)
			e.ID = "2"
			b.events[e.ID] = e
			writeJSON(w, http.StatusCreated, e)
			return
		}
		out := []models.Event{}
		for _, e := range b.events {
			out = append(out, e)
		}
		writeJSON(w, http.StatusOK, out)
	})).Methods(http.MethodGet, http.MethodPost)

	api.HandleFunc("/calendar/events/{id}/", authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := mux.Vars(r)["id"]
		e, ok := b.events[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		switch r.Method {
		case http.MethodPatch:
			_ = json.NewDecoder(r.Body).Decode(&e)
			b.events[id] = e
			writeJSON(w, http.StatusOK, e)
		case http.MethodDelete:
			delete(b.events, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, http.StatusOK, e)
		}
	})).Methods(http.MethodGet, http.MethodPatch, http.MethodDelete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLogsInOnFirstCall(t *testing.T) {
	b, srv := newFakeBackend(t)
	events := NewEvents(NewClient(srv.URL, "ana", "pw"), nil)

	list, err := events.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, b.logins)
	assert.Zero(t, b.refreshes)
}

func TestRefreshesOnceOn401(t *testing.T) {
	b, srv := newFakeBackend(t)
	c := NewClient(srv.URL, "ana", "pw", WithTokens("stale", "refresh-1"))
	events := NewEvents(c, nil)

	list, err := events.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, b.refreshes)
	assert.Zero(t, b.logins)
	assert.Equal(t, 2, b.eventHits, "original request plus one retry")
}

func TestGivesUpAfterOneRetry(t *testing.T) {
	b, srv := newFakeBackend(t)
	b.alwaysDeny = true
	events := NewEvents(NewClient(srv.URL, "ana", "pw", WithTokens("stale", "refresh-1")), nil)

	_, err := events.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, b.refreshes)
	assert.Equal(t, 2, b.eventHits)
}

func TestCRUDAndNotFoundSemantics(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeBackend(t)
	bus := broadcast.New()
	changes, cancel := bus.Subscribe(broadcast.TopicEvents)
	defer cancel()

	events := NewEvents(NewClient(srv.URL, "ana", "pw"), bus)

	created, err := events.Create(ctx, models.Event{Title: "Standup", Date: "2025-06-10", Start: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "2", created.ID)

	select {
	case c := <-changes:
		assert.Equal(t, broadcast.OpCreated, c.Op)
		assert.Equal(t, "2", c.ID)
	case <-time.After(time.Second):
		t.Fatal("expected a change on the bus")
	}

	_, err = events.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.NoError(t, events.Update(ctx, models.Event{ID: "missing", Title: "x"}))
	assert.NoError(t, events.Remove(ctx, "missing"))

	created.Title = "Standup (moved)"
	require.NoError(t, events.Update(ctx, created))
	got, err := events.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Standup (moved)", got.Title)

	require.NoError(t, events.Remove(ctx, "2"))
	_, err = events.Get(ctx, "2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAPIErrorMapping(t *testing.T) {
	assert.ErrorIs(t, &APIError{Status: 404}, store.ErrNotFound)
	assert.ErrorIs(t, &APIError{Status: 400, Message: "bad"}, store.ErrInvalid)
	assert.NotErrorIs(t, &APIError{Status: 500}, store.ErrNotFound)
	assert.Equal(t, "remote returned 400: bad", (&APIError{Status: 400, Message: "bad"}).Error())
}
