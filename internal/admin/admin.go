// Package admin serves the daemon's HTTP admin API: health, Prometheus
// metrics, job status and configuration reload.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/cronox/internal/security"
	"github.com/flemzord/cronox/pkg/cron"
)

// Jobs is the view of a scheduler the admin API needs.
type Jobs interface {
	Entries() []cron.EntryStatus
	Running() bool
}

// Deps are the collaborators of a Server. Only Logger is required.
type Deps struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Redactor *security.Redactor
	// Reload, when set, is exposed as POST /api/reload.
	Reload func(ctx context.Context) error
}

// Server is the admin HTTP server.
type Server struct {
	config    Config
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	redactor  *security.Redactor
	reload    func(ctx context.Context) error
	startedAt time.Time

	mu   sync.RWMutex
	jobs Jobs

	server *http.Server
	addr   net.Addr
}

// New creates a Server. It does not listen until Start.
func New(cfg Config, deps Deps) *Server {
	cfg.defaults()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		logger:    logger,
		gatherer:  deps.Gatherer,
		redactor:  deps.Redactor,
		reload:    deps.Reload,
		startedAt: time.Now(),
	}
}

// SetJobs points the API at a scheduler. It is called again after every
// configuration reload.
func (s *Server) SetJobs(j Jobs) {
	s.mu.Lock()
	s.jobs = j
	s.mu.Unlock()
}

func (s *Server) currentJobs() Jobs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs
}

// Handler returns the router. Exposed for tests and embedding.
func (s *Server) Handler() http.Handler { return s.buildRouter() }

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Auth.IsConfigured() {
		s.logger.Warn("admin: no credentials configured, /api and /status are disabled")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Bind)
	if err != nil {
		return fmt.Errorf("admin: listen failed: %w", err)
	}
	s.addr = ln.Addr()

	s.server = &http.Server{
		Handler:      s.buildRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		s.logger.Info("admin: listening", "addr", s.addr.String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin: serve error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() net.Addr { return s.addr }

// Stop shuts the server down gracefully within the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("admin: shutting down")
	return s.server.Shutdown(shutdownCtx)
}
