// ABOUTME: REST handlers for the task board: listing, stats, CRUD, moves and activity
// ABOUTME: Form creates go through the board save path, PATCH stores the merged record as sent
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/manvote/crmdesk/board"
	"github.com/manvote/crmdesk/models"
	"github.com/manvote/crmdesk/store"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tab, ok := board.ParseTab(q.Get("tab"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown tab")
		return
	}

	tasks, err := s.deps.Tasks.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	f := board.Filter{Tab: tab, Search: q.Get("search"), Status: q.Get("status")}
	writeJSON(w, http.StatusOK, f.Apply(tasks, s.today()))
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Tasks.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board.ComputeStats(tasks, s.today()))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t models.Task
	if err := decode(r, &t); err != nil {
		s.fail(w, err)
		return
	}
	t.ID = ""

	created, err := board.SaveTask(r.Context(), s.deps.Tasks, t)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = id

	// The merged record is stored as sent, activity and priorityColor included.
	if err := s.deps.Tasks.Update(r.Context(), t); err != nil {
		s.fail(w, err)
		return
	}
	saved, err := s.deps.Tasks.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Tasks.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Stage string `json:"stage"`
	}
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}
	stage, ok := models.ParseStage(in.Stage)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown stage")
		return
	}

	t, err := board.MoveTask(r.Context(), s.deps.Tasks, mux.Vars(r)["id"], stage)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Activity.CommentsList)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := decode(r, &in); err != nil {
		s.fail(w, err)
		return
	}

	c, err := board.AddComment(r.Context(), s.deps.Tasks, mux.Vars(r)["id"], in.Text, s.today())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Activity.AttachmentsList)
}

// handleAddAttachment accepts a multipart upload in the "file" field.
func (s *Server) handleAddAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, board.MaxAttachmentBytes+1<<20)
	if err := r.ParseMultipartForm(board.MaxAttachmentBytes + 1<<20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, board.ErrAttachmentTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > board.MaxAttachmentBytes {
		s.fail(w, board.ErrAttachmentTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, err)
		return
	}

	a, err := board.AddAttachment(r.Context(), s.deps.Tasks, mux.Vars(r)["id"], board.Upload{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Data: data,
	}, s.today())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := board.DeleteAttachment(r.Context(), s.deps.Tasks, vars["id"], vars["aid"])
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
