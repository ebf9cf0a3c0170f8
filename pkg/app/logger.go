package app

import (
	"io"
	"log/slog"

	"github.com/flemzord/cronox/internal/config"
	"github.com/flemzord/cronox/internal/security"
)

// NewLogger builds the daemon logger: a text or JSON handler at the
// configured level, wrapped so secrets known to redactor never reach out.
func NewLogger(cfg config.LogConfig, out io.Writer, redactor *security.Redactor) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler
	if cfg.Format == "json" {
		inner = slog.NewJSONHandler(out, opts)
	} else {
		inner = slog.NewTextHandler(out, opts)
	}

	if redactor == nil {
		return slog.New(inner), nil
	}
	return slog.New(security.NewRedactingHandler(inner, redactor)), nil
}
