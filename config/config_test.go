package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "@every 1m", cfg.ReminderSchedule)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Backend = BackendBadger
	cfg.Storage.Path = "/tmp/crm-badger"
	cfg.Server.Listen = "0.0.0.0:9000"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, loaded.Storage.Backend)
	assert.Equal(t, "/tmp/crm-badger", loaded.Storage.Path)
	assert.Equal(t, "0.0.0.0:9000", loaded.Server.Listen)
}

func TestNormalizeUnknownBackend(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: "cassandra"}}
	cfg.Normalize()
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"CRMDESK_STORAGE_BACKEND": "mongo",
		"CRMDESK_MONGO_URI":       "mongodb://localhost:27017",
		"CRMDESK_JWT_SECRET":      "s3cret",
		"PORT":                    "7000",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.applyEnv(lookup)

	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Storage.MongoURI)
	assert.Equal(t, "s3cret", cfg.Server.JWTSecret)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Listen)
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.Local, cfg.Location())
}
