package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kimballen/acre-Intrusion/internal/alarm"
)

// defaultCommandTimeout applies when panel.command_timeout is unset.
const defaultCommandTimeout = 5 * time.Second

// deviceInfo describes the panel every area belongs to.
type deviceInfo struct {
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

// areaResponse is the client view of an area.
type areaResponse struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Mode            alarm.Mode     `json:"mode"`
	State           alarm.State    `json:"state"`
	VerifiedAlarm   bool           `json:"verified_alarm"`
	ChangedBy       string         `json:"changed_by,omitempty"`
	UpdatedAt       string         `json:"updated_at"`
	CodeFormat      string         `json:"code_format"`
	CodeArmRequired bool           `json:"code_arm_required"`
	Actions         []alarm.Action `json:"supported_actions"`
	Device          deviceInfo     `json:"device"`
}

type areaActionRequest struct {
	Code string `json:"code"`
}

func (s *Server) areaView(a alarm.Area) areaResponse {
	return areaResponse{
		ID:              a.ID,
		Name:            a.Name,
		Mode:            a.Mode,
		State:           a.State(),
		VerifiedAlarm:   a.VerifiedAlarm,
		ChangedBy:       a.LastChangedBy,
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
		CodeFormat:      alarm.CodeFormat,
		CodeArmRequired: true,
		Actions:         alarm.Actions(),
		Device: deviceInfo{
			Name:         s.panelCfg.Name,
			Manufacturer: s.panelCfg.Manufacturer,
			Model:        s.panelCfg.Model,
		},
	}
}

// handleListAreas returns every known area.
func (s *Server) handleListAreas(w http.ResponseWriter, _ *http.Request) {
	areas := s.areas.List()
	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, s.areaView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"areas": out,
		"count": len(out),
	})
}

// handleGetArea returns one area.
func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	a, ok := s.areas.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "area not found")
		return
	}
	writeJSON(w, http.StatusOK, s.areaView(a))
}

// handleAreaAction runs disarm, arm_home, arm_night or arm_away. The code
// is required for every action. 202 means the panel was asked; the new
// state arrives later over the WebSocket.
func (s *Server) handleAreaAction(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "id")
	action := alarm.Action(chi.URLParam(r, "action"))

	var req areaActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	timeout := time.Duration(s.panelCfg.CommandTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	err := s.controller.Command(ctx, areaID, action, req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "accepted",
			"area_id": areaID,
			"action":  string(action),
		})
	case errors.Is(err, alarm.ErrUnknownAction):
		writeNotFound(w, "unknown action")
	case errors.Is(err, alarm.ErrAreaNotFound):
		writeNotFound(w, "area not found")
	case errors.Is(err, alarm.ErrInvalidCode):
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCode, "invalid code")
	case errors.Is(err, alarm.ErrGateway):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "panel did not accept the command")
	default:
		s.logger.Error("area command failed", "area_id", areaID, "action", string(action), "error", err)
		writeInternalError(w, "area command failed")
	}
}
