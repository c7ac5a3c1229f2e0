package http

import (
	"context"
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		Uptime:    now.Sub(s.started).Round(time.Second).String(),
	})
}

type readyResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// handleReady checks that the backing store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	resp := readyResponse{Status: "ready", Timestamp: s.now().Format(time.RFC3339), Checks: map[string]string{}}
	status := http.StatusOK
	resp.Checks["store"] = "ok"
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			resp.Checks["store"] = "failed: " + err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
