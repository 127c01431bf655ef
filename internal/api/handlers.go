package api

import (
	"net/http"
	"strconv"

	"github.com/sprite-ai/claimassess/internal/model"
	"github.com/sprite-ai/claimassess/internal/overlay"
	"github.com/sprite-ai/claimassess/internal/upload"
	"github.com/sprite-ai/claimassess/internal/wizard"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Steps ---

type stepsResponse struct {
	Current int           `json:"current"`
	Total   int           `json:"total"`
	Marks   []wizard.Mark `json:"marks"`
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	current := 1
	if v := r.URL.Query().Get("current"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > wizard.TotalSteps {
			s.writeError(w, http.StatusBadRequest, "current must be between 1 and "+strconv.Itoa(wizard.TotalSteps))
			return
		}
		current = n
	}

	s.writeJSON(w, http.StatusOK, stepsResponse{
		Current: current,
		Total:   wizard.TotalSteps,
		Marks:   wizard.Indicator(current, wizard.TotalSteps),
	})
}

// --- Overlay ---

type overlayRequest struct {
	Details []model.DamageDetail `json:"details"`
	Width   int                  `json:"width"`
	Height  int                  `json:"height"`
}

type overlayResponse struct {
	Boxes []overlay.Box `json:"boxes"`
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlayRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		s.writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	s.writeJSON(w, http.StatusOK, overlayResponse{
		Boxes: overlay.Layout(req.Details, req.Width, req.Height),
	})
}

// --- Validate ---

type validateRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size"`
}

type validateResponse struct {
	OK    bool   `json:"ok"`
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	f := upload.File{Name: req.Name, Type: req.Type, Size: req.Size}
	if f.Type == "" {
		f.Type = upload.TypeByName(req.Name)
	}

	resp := validateResponse{OK: true, Type: f.Type}
	if err := s.opts.Wizard.Limits.Validate(f); err != nil {
		resp.OK = false
		resp.Error = upload.Message(err)
	}
	s.writeJSON(w, http.StatusOK, resp)
}
