// ABOUTME: Opens the configured storage backend and builds the stores every command shares
// ABOUTME: One App per process; Close releases whatever the backend opened
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/charm"
	"github.com/manvote/crmdesk/config"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/notify"
	"github.com/manvote/crmdesk/remote"
	"github.com/manvote/crmdesk/store"
)

// App holds the stores for the configured backend.
// Users and Feed are nil on the remote backend, which owns them server-side.
type App struct {
	Config   *config.Config
	Bus      *broadcast.Bus
	Events   store.EventRepository
	Tasks    store.TaskRepository
	Leads    store.LeadRepository
	Deals    store.DealRepository
	Users    *store.UserStore
	Feed     *notify.Feed
	Notifier notify.Notifier
	Location *time.Location

	sqlDB   *sql.DB
	closers []func() error
}

// Open builds an App for cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Bus:      broadcast.New(),
		Location: cfg.Location(),
	}
	log := logging.For("cli").WithField("backend", cfg.Storage.Backend)

	if cfg.Storage.Backend == config.BackendRemote {
		if cfg.Remote.BaseURL == "" {
			return nil, fmt.Errorf("remote backend needs remote.base_url")
		}
		client := remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.Username, cfg.Remote.Password)
		a.Events = remote.NewEvents(client, a.Bus)
		a.Tasks = remote.NewTasks(client, a.Bus)
		a.Leads = remote.NewLeads(client, a.Bus)
		a.Deals = remote.NewDeals(client, a.Bus)
		a.Notifier = notify.NewLogNotifier()
		log.WithField("url", cfg.Remote.BaseURL).Debug("Using remote stores")
		return a, nil
	}

	st, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.sqlDB = st.SQL
	a.closers = append(a.closers, st.Close)
	res := st.Resource

	clock := store.WithClock(a.now)
	a.Events = store.NewEventStore(res, a.Bus, clock)
	a.Tasks = store.NewTaskStore(res, a.Bus, clock)
	a.Leads = store.NewLeadStore(res, a.Bus, clock)
	a.Deals = store.NewDealStore(res, a.Bus, clock)
	a.Users = store.NewUserStore(res, a.Bus)
	a.Feed = notify.NewFeed(res, a.Bus)
	a.Notifier = notify.Multi{a.Feed, notify.NewLogNotifier()}
	log.WithField("path", cfg.Storage.Path).Debug("Opened local stores")
	return a, nil
}

// Storage is an opened local backend.
type Storage struct {
	Resource db.Resource
	// SQL is set only for the sqlite backend.
	SQL     *sql.DB
	closers []func() error
}

// OpenStorage opens the badger, charm, mongo or sqlite backend described by s.
func OpenStorage(ctx context.Context, s config.StorageConfig) (*Storage, error) {
	st := &Storage{}
	switch s.Backend {
	case config.BackendBadger:
		r, err := db.OpenBadger(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
		st.Resource = r
		st.closers = append(st.closers, r.Close)

	case config.BackendCharm:
		ccfg, err := charm.LoadConfig(charm.ConfigPath())
		if err != nil {
			return nil, err
		}
		c, err := charm.NewClient(ccfg)
		if err != nil {
			return nil, err
		}
		st.Resource = c
		st.closers = append(st.closers, c.Close)

	case config.BackendMongo:
		if s.MongoURI == "" {
			return nil, fmt.Errorf("mongo backend needs storage.mongo_uri")
		}
		r, err := db.OpenMongo(ctx, s.MongoURI, s.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo: %w", err)
		}
		st.Resource = r
		st.closers = append(st.closers, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return r.Close(closeCtx)
		})

	case config.BackendRemote:
		return nil, fmt.Errorf("the remote backend has no local storage")

	default:
		database, err := db.OpenDatabase(s.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		st.Resource = db.NewSQLiteResource(database)
		st.SQL = database
		st.closers = append(st.closers, database.Close)
	}
	return st, nil
}

// Close releases the backend handles.
func (s *Storage) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// SyncDB returns the sqlite handle that holds sync_state and sync_log.
// Non-sqlite backends keep them in sync.db under the data directory.
func (a *App) SyncDB() (*sql.DB, error) {
	if a.sqlDB != nil {
		return a.sqlDB, nil
	}
	database, err := db.OpenDatabase(filepath.Join(config.DataDir(), "sync.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open sync database: %w", err)
	}
	a.sqlDB = database
	a.closers = append(a.closers, database.Close)
	return database, nil
}

func (a *App) now() time.Time {
	return time.Now().In(a.Location)
}

// Now is the wall clock in the configured timezone.
func (a *App) Now() time.Time {
	return a.now()
}

// Close releases backend handles in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
