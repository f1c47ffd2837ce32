// ABOUTME: YAML configuration with XDG paths, .env loading and environment overrides
// ABOUTME: Load creates a default file on first run and Save writes atomically
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const AppName = "crmdesk"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendCharm  = "charm"
	BackendMongo  = "mongo"
	BackendRemote = "remote"
)

// StorageConfig selects where collections are persisted.
type StorageConfig struct {
	// Backend is one of sqlite, badger, charm, mongo or remote.
	Backend string `yaml:"backend"`
	// Path is the sqlite file or badger directory.
	Path string `yaml:"path"`
	// MongoURI and MongoDatabase are used by the mongo backend.
	MongoURI      string `yaml:"mongo_uri,omitempty"`
	MongoDatabase string `yaml:"mongo_database,omitempty"`
}

// RemoteConfig points the stores at a REST backend instead of local storage.
type RemoteConfig struct {
	BaseURL  string `yaml:"base_url,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ServerConfig controls the REST API.
type ServerConfig struct {
	Listen    string `yaml:"listen"`
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`

	// Timezone is the IANA zone used for "today" and reminder matching.
	Timezone string `yaml:"timezone"`

	// ReminderSchedule is the cron spec for the reminder scan.
	ReminderSchedule string `yaml:"reminder_schedule"`

	// GoogleCredentials is the OAuth client JSON used by sync google.
	GoogleCredentials string `yaml:"google_credentials,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/crmdesk/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// DataDir returns $XDG_DATA_HOME/crmdesk.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(DataDir(), "crmdesk.db"),
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Timezone:         "Local",
		ReminderSchedule: "@every 1m",
	}
}

// Normalize fills in missing values so partially written files still work.
func (c *Config) Normalize() {
	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger, BackendCharm, BackendMongo, BackendRemote:
	default:
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.Path == "" {
		if c.Storage.Backend == BackendBadger {
			c.Storage.Path = filepath.Join(DataDir(), "badger")
		} else {
			c.Storage.Path = filepath.Join(DataDir(), "crmdesk.db")
		}
	}
	if c.Storage.MongoDatabase == "" {
		c.Storage.MongoDatabase = AppName
	}
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.ReminderSchedule == "" {
		c.ReminderSchedule = "@every 1m"
	}
}

// Load reads the YAML file at path, writing defaults first if it does not exist.
// A .env file in the working directory and CRMDESK_* variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	// Missing .env is fine
	_ = godotenv.Load()

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg to path through a temp file and rename, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".crmdesk-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("CRMDESK_STORAGE_BACKEND", &c.Storage.Backend)
	str("CRMDESK_STORAGE_PATH", &c.Storage.Path)
	str("CRMDESK_MONGO_URI", &c.Storage.MongoURI)
	str("CRMDESK_MONGO_DATABASE", &c.Storage.MongoDatabase)
	str("CRMDESK_REMOTE_URL", &c.Remote.BaseURL)
	str("CRMDESK_REMOTE_USERNAME", &c.Remote.Username)
	str("CRMDESK_REMOTE_PASSWORD", &c.Remote.Password)
	str("CRMDESK_LISTEN", &c.Server.Listen)
	str("CRMDESK_JWT_SECRET", &c.Server.JWTSecret)
	str("CRMDESK_LOG_LEVEL", &c.Log.Level)
	str("CRMDESK_LOG_FILE", &c.Log.File)
	str("CRMDESK_TIMEZONE", &c.Timezone)
	str("CRMDESK_REMINDER_SCHEDULE", &c.ReminderSchedule)
	str("CRMDESK_GOOGLE_CREDENTIALS", &c.GoogleCredentials)

	// PORT is honored for container deployments
	if v, ok := lookup("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			host := "0.0.0.0"
			if i := strings.LastIndex(c.Server.Listen, ":"); i > 0 {
				host = c.Server.Listen[:i]
			}
			c.Server.Listen = host + ":" + strconv.Itoa(port)
		}
	}
}

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
