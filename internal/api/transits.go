package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stellar-data/lightcurve.report/internal/httputil"
)

func (s *Server) transitStatus(w http.ResponseWriter, r *http.Request) {
	if s.detect == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "detection worker not configured")
		return
	}
	httputil.WriteJSONOK(w, s.detect.Status())
}

func (s *Server) triggerTransitScan(w http.ResponseWriter, r *http.Request) {
	if s.detect == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "detection worker not configured")
		return
	}
	if !s.detect.Trigger() {
		httputil.WriteJSONError(w, http.StatusConflict, "a scan is already pending")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) setTransitScanEnabled(w http.ResponseWriter, r *http.Request) {
	if s.detect == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "detection worker not configured")
		return
	}

	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Enabled == nil {
		httputil.BadRequest(w, "missing required field 'enabled'")
		return
	}

	s.detect.SetEnabled(*req.Enabled)
	httputil.WriteJSONOK(w, s.detect.Status())
}
