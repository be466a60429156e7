package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kimballen/acre-Intrusion/internal/alarm"
	"github.com/kimballen/acre-Intrusion/internal/auth"
	"github.com/kimballen/acre-Intrusion/internal/pinstore"
	"github.com/kimballen/acre-Intrusion/internal/setup"
)

type pinRequest struct {
	PIN string `json:"pin"`
}

type setupStatusResponse struct {
	setup.Status
	PINFormat string `json:"pin_format"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
	ExpiresIn int    `json:"expires_in"`
}

// handleSetupStatus tells clients whether to show first-run setup.
func (s *Server) handleSetupStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, setupStatusResponse{
		Status:    s.setup.Status(),
		PINFormat: alarm.CodeFormat,
	})
}

// handleSetupAdmin stores the first admin PIN. It is refused with 409 once
// an admin exists.
func (s *Server) handleSetupAdmin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.setup.SetupAdmin(r.Context(), req.PIN); err != nil {
		s.writeSetupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "configured"})
}

// handleUnlock exchanges the admin PIN for an installer session.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.setup.Unlock(req.PIN); err != nil {
		s.writeSetupError(w, err)
		return
	}

	session, err := auth.IssueSession(s.secCfg.JWT.Secret, s.secCfg.JWT.SessionTTL, s.now())
	if err != nil {
		s.logger.Error("issuing installer session failed", "error", err)
		writeInternalError(w, "failed to issue session")
		return
	}

	s.logger.Info("installer session issued", "client", clientIP(r), "expires_at", session.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     session.Token,
		TokenType: "Bearer",
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		ExpiresIn: int(session.ExpiresAt.Sub(s.now()).Seconds()),
	})
}

// handleChangeAdminPIN replaces the admin PIN. Existing sessions stay valid
// until they expire.
func (s *Server) handleChangeAdminPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.setup.ChangeAdminPIN(r.Context(), req.PIN); err != nil {
		s.writeSetupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// writeSetupError maps credential administration errors to responses.
func (s *Server) writeSetupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, setup.ErrInvalidPIN), errors.Is(err, setup.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, setup.ErrInvalidAdminPIN):
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCode, "invalid admin pin")
	case errors.Is(err, setup.ErrAdminExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, "admin pin already configured")
	case errors.Is(err, setup.ErrAdminNotConfigured):
		writeError(w, http.StatusConflict, ErrCodeConflict, "admin pin not configured")
	case errors.Is(err, setup.ErrUserNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, pinstore.ErrProtectedIdentity):
		writeForbidden(w, "the admin identity cannot be removed")
	default:
		s.logger.Error("credential operation failed", "error", err)
		writeInternalError(w, "credential storage error")
	}
}
