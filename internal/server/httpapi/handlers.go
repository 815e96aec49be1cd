package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/edavydenko/mylist/internal/common"
	"github.com/edavydenko/mylist/internal/models"
)

type usernameRequest struct {
	Username string `json:"username"`
}

type checkUsernameResponse struct {
	Exists bool               `json:"exists"`
	User   *models.UserRecord `json:"user,omitempty"`
}

type userResponse struct {
	User *models.UserRecord `json:"user"`
}

type saveDataRequest struct {
	User *models.UserRecord `json:"user"`
}

func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	rec, exists, err := s.service.Check(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, checkUsernameResponse{Exists: exists, User: rec})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	rec, err := s.service.Create(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, userResponse{User: rec})
}

func (s *Server) saveData(w http.ResponseWriter, r *http.Request) {
	var req saveDataRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	if req.User == nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "user is required"})
		return
	}

	rec, err := s.service.Save(r.Context(), req.User)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, userResponse{User: rec})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, userResponse{User: rec})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(r.Context(), "error writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, common.ErrUsernameTaken):
		s.writeJSON(w, r, http.StatusConflict, map[string]string{"error": "username already exists"})
	case errors.Is(err, common.ErrInvalidUsername):
		s.writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		s.writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
