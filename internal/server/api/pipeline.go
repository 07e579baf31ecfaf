package api

import (
	"encoding/json"
	"net/http"
)

// PipelineStatus describes the running pipeline.
type PipelineStatus struct {
	Running   bool   `json:"running"`
	Enabled   bool   `json:"enabled"`
	Halted    bool   `json:"halted"`
	Failures  int    `json:"failures"`
	Session   string `json:"session,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Controller is the part of the application the pipeline endpoint drives.
type Controller interface {
	Status() PipelineStatus
	SetEnabled(enabled bool)
}

// PipelineHandler reports pipeline status and toggles detection.
type PipelineHandler struct {
	ctl Controller
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(ctl Controller) *PipelineHandler {
	return &PipelineHandler{ctl: ctl}
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/pipeline.
func (h *PipelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctl.Status())
	case http.MethodPut:
		var req setEnabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.ctl.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, h.ctl.Status())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
