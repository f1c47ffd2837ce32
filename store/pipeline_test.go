package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewLeadStore(newResource(t), nil, WithClock(fixedClock))

	lead, err := s.Create(ctx, models.Lead{Name: "Ada Park", Company: "Wayne", Email: "ada@wayne.example"})
	require.NoError(t, err)
	assert.Equal(t, models.LeadNew, lead.Status)
	assert.Equal(t, "2025-06-10", lead.CreatedOn)

	leads, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, leads[0].ID, "new leads go first")

	lead.Status = models.LeadInterested
	require.NoError(t, s.Update(ctx, lead))
	got, err := s.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadInterested, got.Status)

	require.NoError(t, s.Remove(ctx, lead.ID))
	_, err = s.Get(ctx, lead.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Create(ctx, models.Lead{Name: "Bad", Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDealStoreOnSQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	defer database.Close()

	s := NewDealStore(db.NewSQLiteResource(database), nil)
	deals, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, deals, 5)

	created, err := s.Create(ctx, models.Deal{Title: "New logo", Amount: 900})
	require.NoError(t, err)
	assert.Equal(t, models.DealQualification, created.Stage)

	reopened := NewDealStore(db.NewSQLiteResource(database), nil)
	deals, err = reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, deals, 6)
	assert.Equal(t, created.ID, deals[5].ID)

	_, err = s.Create(ctx, models.Deal{Title: "x", Stage: "Maybe"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(newResource(t), nil)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	u, err := s.Create(ctx, models.User{Username: "dana", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSales, u.Role)

	found, err := s.FindByUsername(ctx, "DANA")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.Create(ctx, models.User{Username: "dana", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.FindByUsername(ctx, "eve")
	assert.ErrorIs(t, err, ErrNotFound)
}
