// ABOUTME: Login, token refresh and user management handlers
// ABOUTME: Users are rendered without their password hash
package web

import (
	"net/http"

	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/models"
)

type userView struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name,omitempty"`
	Role     models.Role `json:"role"`
}

func viewUser(u models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Name: u.Name, Role: auth.NormalizeRole(string(u.Role))}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}

	pair, u, err := s.deps.Auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    viewUser(u),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}

	pair, err := s.deps.Auth.Issuer().Refresh(in.Refresh)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}

	u, err := s.deps.Auth.Register(r.Context(), in.Username, in.Name, in.Password, models.Role(in.Role))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewUser(u))
}
