// ABOUTME: JSON REST API over the calendar, task board and pipeline stores
// ABOUTME: Bearer-token auth, role gating, CORS and a server-sent change stream
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/store"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the API serves.
type Deps struct {
	Events   store.EventRepository
	Tasks    store.TaskRepository
	Leads    store.LeadRepository
	Deals    store.DealRepository
	Feed     *notify.Feed
	Notifier notify.Notifier
	Auth     *auth.Service
	Users    *store.UserStore
	Bus      *broadcast.Bus
	Location *time.Location
	Now      func() time.Time
}

type Server struct {
	deps   Deps
	router *mux.Router
	log    *logrus.Entry
}

func NewServer(deps Deps) *Server {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Multi{}
	}

	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
		log:    logging.For("web"),
	}
	s.routes()
	return s
}

func (s *Server) today() time.Time {
	return s.deps.Now().In(s.deps.Location)
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login/", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", s.handleRefresh).Methods(http.MethodPost)

	p := api.NewRoute().Subrouter()
	p.Use(s.requireAuth)

	p.HandleFunc("/calendar/events/", s.handleListEvents).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/", s.handleCreateEvent).Methods(http.MethodPost)
	p.HandleFunc("/calendar/events/week_view/", s.handleWeekView).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/month_view/", s.handleMonthView).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/today_events/", s.handleTodayEvents).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/upcoming_events/", s.handleUpcomingEvents).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/{id}/", s.handleGetEvent).Methods(http.MethodGet)
	p.HandleFunc("/calendar/events/{id}/", s.handlePatchEvent).Methods(http.MethodPatch)
	p.HandleFunc("/calendar/events/{id}/", s.handleDeleteEvent).Methods(http.MethodDelete)
	p.HandleFunc("/calendar/slot/", s.handleSlot).Methods(http.MethodGet)
	p.HandleFunc("/calendar/export.ics", s.handleExportICS).Methods(http.MethodGet)

	p.HandleFunc("/tasks/", s.handleListTasks).Methods(http.MethodGet)
	p.HandleFunc("/tasks/", s.handleCreateTask).Methods(http.MethodPost)
	p.HandleFunc("/tasks/stats/", s.handleTaskStats).Methods(http.MethodGet)
	p.HandleFunc("/tasks/{id}/", s.handleGetTask).Methods(http.MethodGet)
	p.HandleFunc("/tasks/{id}/", s.handlePatchTask).Methods(http.MethodPatch)
	p.HandleFunc("/tasks/{id}/", s.handleDeleteTask).Methods(http.MethodDelete)
	p.HandleFunc("/tasks/{id}/move/", s.handleMoveTask).Methods(http.MethodPost)
	p.HandleFunc("/tasks/{id}/comments/", s.handleListComments).Methods(http.MethodGet)
	p.HandleFunc("/tasks/{id}/comments/", s.handleAddComment).Methods(http.MethodPost)
	p.HandleFunc("/tasks/{id}/attachments/", s.handleListAttachments).Methods(http.MethodGet)
	p.HandleFunc("/tasks/{id}/attachments/", s.handleAddAttachment).Methods(http.MethodPost)
	p.HandleFunc("/tasks/{id}/attachments/{aid}/", s.handleDeleteAttachment).Methods(http.MethodDelete)

	p.HandleFunc("/leads/", s.handleListLeads).Methods(http.MethodGet)
	p.HandleFunc("/leads/", s.handleCreateLead).Methods(http.MethodPost)
	p.HandleFunc("/leads/{id}/", s.handleGetLead).Methods(http.MethodGet)
	p.HandleFunc("/leads/{id}/", s.handlePatchLead).Methods(http.MethodPatch)
	p.HandleFunc("/leads/{id}/", s.requirePermission(auth.PermDeleteLead, s.handleDeleteLead)).Methods(http.MethodDelete)

	p.HandleFunc("/deals/", s.handleListDeals).Methods(http.MethodGet)
	p.HandleFunc("/deals/", s.handleCreateDeal).Methods(http.MethodPost)
	p.HandleFunc("/deals/{id}/", s.handleGetDeal).Methods(http.MethodGet)
	p.HandleFunc("/deals/{id}/", s.handlePatchDeal).Methods(http.MethodPatch)
	p.HandleFunc("/deals/{id}/", s.handleDeleteDeal).Methods(http.MethodDelete)

	p.HandleFunc("/dashboard/", s.handleDashboard).Methods(http.MethodGet)
	p.HandleFunc("/notifications/", s.handleNotifications).Methods(http.MethodGet)
	p.HandleFunc("/users/", s.requirePermission(auth.PermManageTeam, s.handleListUsers)).Methods(http.MethodGet)
	p.HandleFunc("/users/", s.requirePermission(auth.PermManageTeam, s.handleCreateUser)).Methods(http.MethodPost)
	p.HandleFunc("/events/stream", s.handleStream).Methods(http.MethodGet)
}

// Handler returns the router wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	return enableCORS(s.logRequests(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond),
		}).Debug("Request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type ctxKey struct{}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(ctxKey{}).(*auth.Claims)
	return c
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	// EventSource cannot set headers.
	return r.URL.Query().Get("token")
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		claims, err := s.deps.Auth.Issuer().Parse(token, auth.TypeAccess)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token is invalid or expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
	})
}

func (s *Server) requirePermission(perm auth.Permission, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || !auth.Can(claims.Role, perm) {
			writeError(w, http.StatusForbidden, "you do not have permission to perform this action")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, board.ErrAttachmentTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		s.log.WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	return nil
}
