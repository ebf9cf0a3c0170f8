package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/cronox/pkg/cron"
)

// ParseLevel maps a log.level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log.level %q", s)
	}
}

// SchedulerOptions translates the scheduler section into cron options.
func SchedulerOptions(cfg *Config) ([]cron.Option, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	return []cron.Option{
		cron.WithTick(cfg.Scheduler.Tick),
		cron.WithDueWindow(cfg.Scheduler.DueWindow),
		cron.WithLocation(loc),
	}, nil
}

// Apply registers every configured job on s, in file order. It returns the
// configuration errors recorded by the scheduler, if any.
func Apply(cfg *Config, s *cron.Scheduler) error {
	for _, j := range cfg.Jobs {
		argv, err := j.Argv()
		if err != nil {
			return fmt.Errorf("config: job %q: %w", j.Name, err)
		}

		h := s.Command(argv[0], argv[1:]...).Name(j.Name)
		switch {
		case j.Cron != "":
			h.Cron(j.Cron)
		case j.EverySeconds > 0:
			h.EverySeconds(j.EverySeconds)
		case j.EveryMinutes > 0:
			h.EveryMinutes(j.EveryMinutes)
		}

		if j.QuietHours != "" {
			q, err := cron.ParseQuietHours(j.QuietHours)
			if err != nil {
				return fmt.Errorf("config: job %q: %w", j.Name, err)
			}
			h.SkipDuring(q, nil)
		}
		if j.Skip {
			h.Skip(true)
		}
		if j.Immediately {
			h.Immediately()
		}
		if j.WithoutOverlapping {
			h.WithoutOverlapping()
		}
	}
	return s.Err()
}
