package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// handleListUsers returns user names, admin excluded.
func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	users := s.setup.Users()
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleCreateUser stores a PIN for a new user, replacing an existing one.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.setup.AddUser(r.Context(), req.Username, req.PIN); err != nil {
		s.writeSetupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

// handleUpdateUser replaces an existing user's PIN.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.setup.ModifyUser(r.Context(), name, req.PIN); err != nil {
		s.writeSetupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": name})
}

// handleDeleteUser removes a user.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.setup.RemoveUser(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeSetupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
