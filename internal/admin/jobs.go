package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/cronox/pkg/cron"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime   int64 `json:"uptime_seconds"`
	Running  bool  `json:"running"`
	Jobs     int   `json:"jobs"`
	InFlight int   `json:"in_flight"`
	Failures int64 `json:"failures"`
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime: int64(time.Since(s.startedAt) / time.Second),
		}
		if jobs := s.currentJobs(); jobs != nil {
			resp.Running = jobs.Running()
			for _, e := range jobs.Entries() {
				resp.Jobs++
				resp.InFlight += e.Running
				resp.Failures += e.Failures
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"jobs": s.entries()})
	}
}

func (s *Server) handleGetJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		for _, e := range s.entries() {
			if e.Name == name {
				writeJSON(w, http.StatusOK, e)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found: " + name})
	}
}

func (s *Server) handleReload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		if err := s.reload(ctx); err != nil {
			s.logger.Error("admin: reload failed", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
	}
}

// entries returns the current job list with secrets masked in commands.
func (s *Server) entries() []cron.EntryStatus {
	jobs := s.currentJobs()
	if jobs == nil {
		return []cron.EntryStatus{}
	}
	entries := jobs.Entries()
	if s.redactor != nil {
		for i := range entries {
			entries[i].Action = s.redactor.Redact(entries[i].Action)
		}
	}
	return entries
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
