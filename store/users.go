// ABOUTME: User store holding API accounts and their roles
// ABOUTME: Usernames are unique and matched case-insensitively
package store

import (
	"context"
	"strings"

	"github.com/manvote/crmdesk/broadcast"
	"github.com/manvote/crmdesk/db"
	"github.com/manvote/crmdesk/models"
)

type UserStore struct {
	coll *Collection[models.User]
}

func NewUserStore(res db.Resource, bus *broadcast.Bus) *UserStore {
	return &UserStore{
		coll: NewCollection(res, bus, Spec[models.User]{
			Key:   db.KeyUsers,
			Topic: broadcast.TopicUsers,
			ID:    func(u models.User) string { return u.ID },
			SetID: func(u *models.User, id string) { u.ID = id },
		}),
	}
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	return s.coll.List(ctx)
}

func (s *UserStore) Get(ctx context.Context, id string) (models.User, error) {
	return s.coll.Get(ctx, id)
}

// FindByUsername returns the user or ErrNotFound.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	users, err := s.coll.List(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Create stores a new user. The caller hashes the password.
func (s *UserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return models.User{}, invalid("username is required")
	}
	if u.PasswordHash == "" {
		return models.User{}, invalid("password is required")
	}
	if _, err := s.FindByUsername(ctx, u.Username); err == nil {
		return models.User{}, invalid("username %q is taken", u.Username)
	}
	if u.Role == "" {
		u.Role = models.RoleSales
	}
	return s.coll.Insert(ctx, u, false)
}

func (s *UserStore) Update(ctx context.Context, u models.User) error {
	_, err := s.coll.Replace(ctx, u)
	return err
}

func (s *UserStore) Remove(ctx context.Context, id string) error {
	_, err := s.coll.Remove(ctx, id)
	return err
}
