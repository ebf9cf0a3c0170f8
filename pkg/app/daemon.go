package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/flemzord/cronox/internal/admin"
	"github.com/flemzord/cronox/internal/config"
	"github.com/flemzord/cronox/internal/security"
	"github.com/flemzord/cronox/internal/telemetry"
	"github.com/flemzord/cronox/pkg/cron"
)

// daemon owns the running scheduler and swaps it on reload.
type daemon struct {
	logger   *slog.Logger
	redactor *security.Redactor
	observer cron.Observer
	tracer   *telemetry.Provider
	logLevel string

	// admin is told about every new scheduler. Nil when the admin server
	// is disabled.
	admin *admin.Server

	mu      sync.Mutex
	cfg     *config.Config
	current *instance
}

type instance struct {
	sched  *cron.Scheduler
	cancel context.CancelFunc
	done   chan struct{}
}

func newDaemon(logger *slog.Logger, redactor *security.Redactor, observer cron.Observer, tracer *telemetry.Provider) *daemon {
	return &daemon{
		logger:   logger,
		redactor: redactor,
		observer: observer,
		tracer:   tracer,
	}
}

// buildScheduler creates a scheduler with every job in cfg registered. It
// does not start it.
func (d *daemon) buildScheduler(cfg *config.Config) (*cron.Scheduler, error) {
	opts, err := config.SchedulerOptions(cfg)
	if err != nil {
		return nil, err
	}

	env := security.EnvPolicy{
		Inherit:  cfg.Env.InheritEnv(),
		Strip:    cfg.Env.Strip,
		Set:      cfg.Env.Set,
		Redactor: d.redactor,
	}
	opts = append(opts,
		cron.WithLogger(d.logger),
		cron.WithCommandEnv(env.Environ),
	)
	if d.observer != nil {
		opts = append(opts, cron.WithObserver(d.observer))
	}
	if d.tracer != nil {
		opts = append(opts, cron.WithTracerProvider(d.tracer))
	}

	s := cron.New(opts...)
	if err := config.Apply(cfg, s); err != nil {
		return nil, err
	}
	return s, nil
}

// apply builds a scheduler from cfg and, only if that succeeds, stops the
// current one and starts the replacement. Executions already in flight
// on the old scheduler run to completion.
func (d *daemon) apply(ctx context.Context, cfg *config.Config) error {
	if d.logLevel != "" {
		cfg.Log.Level = d.logLevel
	}

	s, err := d.buildScheduler(cfg)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg != nil {
		if changed := restartOnly(d.cfg, cfg); len(changed) > 0 {
			d.logger.Warn("app: changed sections take effect on restart only", "sections", changed)
		}
	}

	d.stopLocked()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	inst := &instance{sched: s, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(inst.done)
		if err := s.Run(runCtx); err != nil {
			d.logger.Error("cron: scheduler stopped", "error", err)
		}
	}()

	d.cfg = cfg
	d.current = inst
	if d.admin != nil {
		d.admin.SetJobs(s)
	}

	d.logger.Info("app: scheduler started", "jobs", s.Len())
	return nil
}

// scheduler returns the scheduler currently running, or nil.
func (d *daemon) scheduler() *cron.Scheduler {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return nil
	}
	return d.current.sched
}

// stop halts the current scheduler and waits for its tick loop to exit.
func (d *daemon) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *daemon) stopLocked() {
	if d.current == nil {
		return
	}
	d.current.cancel()
	<-d.current.done
	d.current = nil
}
