package admin

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status string `json:"status"` // "ok" or "stopped"
	Jobs   int    `json:"jobs"`
}

// handleHealth returns 200 while the scheduler loop is running, 503 otherwise.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "stopped"}
		if jobs := s.currentJobs(); jobs != nil {
			resp.Jobs = len(jobs.Entries())
			if jobs.Running() {
				resp.Status = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
