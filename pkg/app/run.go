// Package app is the cronox daemon entry point, shared by "cronox run" and
// the service manager wrapper.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flemzord/cronox/internal/admin"
	"github.com/flemzord/cronox/internal/config"
	"github.com/flemzord/cronox/internal/metrics"
	"github.com/flemzord/cronox/internal/reload"
	"github.com/flemzord/cronox/internal/security"
	"github.com/flemzord/cronox/internal/telemetry"
	"github.com/flemzord/cronox/pkg/cron"
)

// shutdownTimeout bounds admin shutdown and span flushing.
const shutdownTimeout = 5 * time.Second

// RunParams configures the daemon.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, config.ResolvePath searches the standard locations.
	ConfigPath string

	// Version, Commit, and Date are injected at build time via ldflags.
	Version string
	Commit  string
	Date    string

	// LogLevel overrides log.level from the configuration when non-empty.
	LogLevel string

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// PollInterval is how often the configuration file is checked for
	// changes. Zero uses the watcher default.
	PollInterval time.Duration

	// Observer, when set, receives job events alongside the Prometheus
	// metrics.
	Observer cron.Observer
}

// Run loads the configuration, starts the scheduler and the admin server,
// and blocks until ctx is cancelled or SIGINT/SIGTERM is received. SIGHUP,
// a change to the configuration file and POST /api/reload rebuild the
// scheduler from the file.
func Run(ctx context.Context, params RunParams) error {
	cfgPath, err := config.ResolvePath(params.ConfigPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if params.LogLevel != "" {
		cfg.Log.Level = params.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	redactor := security.NewRedactor()
	registerSecrets(redactor, cfg)

	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger, err := NewLogger(cfg.Log, out, redactor)
	if err != nil {
		return err
	}

	tracer := telemetry.Noop()
	if cfg.Tracing != nil {
		tracer, err = telemetry.New(ctx, telemetry.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     params.Version,
			Headers:     cfg.Tracing.Headers,
		})
		if err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promObserver, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("app: registering metrics: %w", err)
	}
	var observer cron.Observer = promObserver
	if params.Observer != nil {
		observer = metrics.Multi{promObserver, params.Observer}
	}

	d := newDaemon(logger, redactor, observer, tracer)
	d.logLevel = params.LogLevel
	if err := d.apply(ctx, cfg); err != nil {
		return err
	}

	handler := reload.NewHandler(cfgPath, d.apply, logger)

	var adminServer *admin.Server
	if cfg.Admin.Bind != "" {
		adminServer = admin.New(admin.Config{
			Bind: cfg.Admin.Bind,
			Auth: admin.AuthConfig{
				BearerToken: cfg.Admin.BearerToken,
				BasicUser:   cfg.Admin.BasicUser,
				BasicPass:   cfg.Admin.BasicPass,
			},
		}, admin.Deps{
			Logger:   logger,
			Gatherer: registry,
			Redactor: redactor,
			Reload:   handler.Reload,
		})
		d.admin = adminServer
		adminServer.SetJobs(d.scheduler())
		if err := adminServer.Start(ctx); err != nil {
			d.stop()
			return err
		}
	}

	// --- signal handling ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// --- file watcher ---
	watcher := reload.NewWatcher(reload.WatcherConfig{
		ConfigPath:   cfgPath,
		PollInterval: params.PollInterval,
	})
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	watcher.Start(watchCtx)
	defer watcher.Stop()

	logger.Info("cronox started",
		"version", params.Version, "commit", params.Commit, "config", cfgPath, "jobs", len(cfg.Jobs))

	// --- main event loop ---
	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, shutting down")
			return shutdown(logger, d, adminServer, tracer)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("SIGHUP received, reloading configuration")
				if err := handler.Reload(ctx); err != nil {
					logger.Error("reload failed", "error", err)
				}
				continue
			}
			logger.Info("shutdown signal received", "signal", sig.String())
			return shutdown(logger, d, adminServer, tracer)
		case evt := <-watcher.Events():
			logger.Info("config file changed, reloading", "path", evt.ConfigPath)
			if err := handler.Reload(ctx); err != nil {
				logger.Error("reload failed", "error", err)
			}
		}
	}
}

func shutdown(logger *slog.Logger, d *daemon, adminServer *admin.Server, tracer *telemetry.Provider) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	d.stop()

	var errs []error
	if adminServer != nil {
		errs = append(errs, adminServer.Stop(ctx))
	}
	errs = append(errs, tracer.Shutdown(ctx))

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("shutdown incomplete", "error", err)
	} else {
		logger.Info("shutdown complete")
	}
	return err
}

// registerSecrets teaches the redactor the credentials found in cfg.
func registerSecrets(r *security.Redactor, cfg *config.Config) {
	r.AddLiteral(cfg.Admin.BearerToken)
	r.AddLiteral(cfg.Admin.BasicPass)
	if cfg.Tracing != nil {
		for _, v := range cfg.Tracing.Headers {
			r.AddLiteral(v)
		}
	}
}

// restartOnly reports configuration sections that a reload cannot change.
func restartOnly(prev, next *config.Config) []string {
	var changed []string
	if prev.Log != next.Log {
		changed = append(changed, "log")
	}
	if prev.Admin != next.Admin {
		changed = append(changed, "admin")
	}
	if !reflect.DeepEqual(prev.Tracing, next.Tracing) {
		changed = append(changed, "tracing")
	}
	return changed
}
