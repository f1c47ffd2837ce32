package charm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/store"
)

func TestClientIsResource(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	_, err := c.Get(ctx, db.KeyTasks)
	assert.ErrorIs(t, err, db.ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, db.KeyTasks, []byte(`[]`)))
	got, err := c.Get(ctx, db.KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, c.Delete(ctx, db.KeyTasks))
	_, err = c.Get(ctx, db.KeyTasks)
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestKeysWithPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)

	require.NoError(t, c.Set(ctx, db.KeyLeads, []byte(`[]`)))
	require.NoError(t, c.Set(ctx, db.KeyDeals, []byte(`[]`)))
	require.NoError(t, c.Set(ctx, db.KeyTasks, []byte(`[]`)))

	keys, err := c.KeysWithPrefix("crm_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{db.KeyLeads, db.KeyDeals}, keys)

	require.NoError(t, c.Reset())
	keys, err = c.KeysWithPrefix("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoreOverCharm(t *testing.T) {
	ctx := context.Background()
	c := NewTestClient(t)
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	tasks := store.NewTaskStore(c, broadcast.New(), store.WithClock(func() time.Time { return now }))
	all, err := tasks.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	raw, err := c.Get(ctx, db.KeyTasks)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Fix Navigation Bug")
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crmdesk", ConfigFileName)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)

	cfg.Host = "charm.example.com"
	cfg.AutoSync = false
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", loaded.Host)
	assert.False(t, loaded.AutoSync)
	assert.NotZero(t, loaded.StaleThreshold)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	fallback, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, fallback.Host)
}
