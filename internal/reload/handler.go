package reload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flemzord/cronox/internal/config"
)

// ApplyFunc replaces the running scheduler with one built from cfg. It
// must leave the current scheduler untouched when it returns an error.
type ApplyFunc func(ctx context.Context, cfg *config.Config) error

// Handler loads, validates and applies a configuration file. Concurrent
// reloads are serialised.
type Handler struct {
	path   string
	apply  ApplyFunc
	logger *slog.Logger

	mu sync.Mutex
}

// NewHandler creates a reload handler for the file at path.
func NewHandler(path string, apply ApplyFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{path: path, apply: apply, logger: logger}
}

// Reload reads the configuration file again and applies it. An invalid file
// is reported and the running scheduler is kept.
func (h *Handler) Reload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg, err := config.Load(h.path)
	if err != nil {
		return fmt.Errorf("reload: loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("reload: validating config: %w", err)
	}
	if err := h.apply(ctx, cfg); err != nil {
		return fmt.Errorf("reload: applying config: %w", err)
	}

	h.logger.Info("reload: configuration applied", "path", h.path, "jobs", len(cfg.Jobs))
	return nil
}
