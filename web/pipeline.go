// ABOUTME: REST handlers for leads, deals, the pipeline dashboard and the notification feed
// ABOUTME: Lead deletes and revenue figures depend on the caller's role
package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/manvote/crmdesk/auth"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/viz"
)

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.deps.Leads.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	status := models.LeadStatus(r.URL.Query().Get("status"))
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var l models.Lead
	if err := decode(r, &l); err != nil {
		s.fail(w, err)
		return
	}
	l.ID = ""
	created, err := s.deps.Leads.Create(r.Context(), l)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Leads.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handlePatchLead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	l, err := s.deps.Leads.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l.ID = id
	if err := s.deps.Leads.Update(r.Context(), l); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Leads.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.deps.Deals.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	stage := models.DealStage(r.URL.Query().Get("stage"))
	out := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if stage == "" || d.Stage == stage {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var d models.Deal
	if err := decode(r, &d); err != nil {
		s.fail(w, err)
		return
	}
	d.ID = ""
	created, err := s.deps.Deals.Create(r.Context(), d)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Deals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePatchDeal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := s.deps.Deals.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.ID = id
	if err := s.deps.Deals.Update(r.Context(), d); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDeal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Deals.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDashboard blanks money figures for roles without VIEW_REVENUE.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	leads, err := s.deps.Leads.List(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	deals, err := s.deps.Deals.List(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}
	tasks, err := s.deps.Tasks.List(ctx)
	if err != nil {
		s.fail(w, err)
		return
	}

	d := viz.BuildDashboard(leads, deals, tasks, s.today())
	if claims := claimsFrom(ctx); claims == nil || !auth.Can(claims.Role, auth.PermViewRevenue) {
		d = d.WithoutRevenue()
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}
	if s.deps.Feed == nil {
		writeJSON(w, http.StatusOK, []models.Notification{})
		return
	}
	items, err := s.deps.Feed.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}
