// ABOUTME: Username/password login backed by the user store
// ABOUTME: Also creates accounts with hashed passwords for the CLI
package auth

import (
	"context"
	"errors"

	"github.com/manvote/crmdesk/logging"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

var ErrBadCredentials = errors.New("invalid username or password")

type Service struct {
	users  *store.UserStore
	issuer *Issuer
}

func NewService(users *store.UserStore, issuer *Issuer) *Service {
	return &Service{users: users, issuer: issuer}
}

func (s *Service) Issuer() *Issuer { return s.issuer }

// Login checks credentials and returns a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, models.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, models.User{}, ErrBadCredentials
		}
		return TokenPair{}, models.User{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		logging.For("auth").WithField("username", username).Warn("Rejected login")
		return TokenPair{}, models.User{}, ErrBadCredentials
	}

	pair, err := s.issuer.Issue(u)
	if err != nil {
		return TokenPair{}, models.User{}, err
	}
	return pair, u, nil
}

// Register hashes password and stores a new user.
func (s *Service) Register(ctx context.Context, username, name, password string, role models.Role) (models.User, error) {
	if password == "" {
		return models.User{}, store.ErrInvalid
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.users.Create(ctx, models.User{
		Username:     username,
		Name:         name,
		Role:         NormalizeRole(string(role)),
		PasswordHash: hash,
	})
}
