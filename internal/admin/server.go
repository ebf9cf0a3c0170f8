package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public: liveness and scraping.
	r.Get("/health", s.handleHealth())
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Job inspection and control. Not mounted without auth.
	if s.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.config.Auth, s.logger))
			r.Get("/status", s.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/jobs", s.handleListJobs())
				r.Get("/jobs/{name}", s.handleGetJob())
				if s.reload != nil {
					r.Post("/reload", s.handleReload())
				}
			})
		})
	}

	return r
}
