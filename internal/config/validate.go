package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/flemzord/cronox/pkg/cron"
)

// Validate checks a loaded Config and returns every problem found,
// joined with errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateScheduler(cfg.Scheduler)...)
	errs = append(errs, validateAdmin(cfg.Admin)...)
	errs = append(errs, validateTracing(cfg.Tracing)...)
	errs = append(errs, validateJobs(cfg.Jobs)...)

	return errors.Join(errs...)
}

func validateLog(l LogConfig) []error {
	var errs []error
	if _, err := ParseLevel(l.Level); err != nil {
		errs = append(errs, err)
	}
	switch l.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be \"text\" or \"json\", got %q", l.Format))
	}
	return errs
}

func validateScheduler(s SchedulerConfig) []error {
	var errs []error
	if s.Tick < 0 {
		errs = append(errs, fmt.Errorf("config: scheduler.tick must be positive, got %s", s.Tick))
	} else if s.Tick > 0 && s.Tick < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("config: scheduler.tick must be at least 10ms, got %s", s.Tick))
	}
	if s.DueWindow < 0 {
		errs = append(errs, fmt.Errorf("config: scheduler.due_window must be positive, got %s", s.DueWindow))
	} else if s.DueWindow > 0 && s.DueWindow < s.Tick {
		errs = append(errs, fmt.Errorf("config: scheduler.due_window (%s) must not be shorter than scheduler.tick (%s)", s.DueWindow, s.Tick))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateAdmin(a AdminConfig) []error {
	var errs []error
	if (a.BasicUser == "") != (a.BasicPass == "") {
		errs = append(errs, errors.New("config: admin.basic_user and admin.basic_pass must be set together"))
	}
	if a.Bind == "" && (a.BearerToken != "" || a.BasicUser != "") {
		errs = append(errs, errors.New("config: admin credentials set but admin.bind is empty"))
	}
	return errs
}

func validateTracing(t *TracingConfig) []error {
	if t == nil {
		return nil
	}
	if t.Endpoint == "" {
		return []error{errors.New("config: tracing.endpoint is required when tracing is configured")}
	}
	return nil
}

func validateJobs(jobs []JobConfig) []error {
	var errs []error
	seen := make(map[string]int, len(jobs))

	for i, j := range jobs {
		where := fmt.Sprintf("config: jobs[%d]", i)
		if j.Name != "" {
			where = fmt.Sprintf("config: job %q", j.Name)
		}

		if j.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		} else if prev, dup := seen[j.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate name (also jobs[%d])", where, prev))
		} else {
			seen[j.Name] = i
		}

		if _, err := j.Argv(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}

		set := 0
		if j.Cron != "" {
			set++
			if _, err := cron.ParseExpression(j.Cron); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
		if j.EverySeconds != 0 {
			set++
			if j.EverySeconds < 0 || j.EverySeconds > 59 {
				errs = append(errs, fmt.Errorf("%s: every_seconds must be between 1 and 59, got %d", where, j.EverySeconds))
			}
		}
		if j.EveryMinutes != 0 {
			set++
			if j.EveryMinutes < 0 || j.EveryMinutes > 59 {
				errs = append(errs, fmt.Errorf("%s: every_minutes must be between 1 and 59, got %d", where, j.EveryMinutes))
			}
		}
		if set > 1 {
			errs = append(errs, fmt.Errorf("%s: cron, every_seconds and every_minutes are mutually exclusive", where))
		}

		if j.QuietHours != "" {
			if _, err := cron.ParseQuietHours(j.QuietHours); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
	}

	return errs
}

// Argv splits Command into program and arguments.
func (j JobConfig) Argv() ([]string, error) {
	if strings.TrimSpace(j.Command) == "" {
		return nil, errors.New("command is required")
	}
	argv, err := shellquote.Split(j.Command)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", j.Command, err)
	}
	if len(argv) == 0 {
		return nil, errors.New("command is required")
	}
	return argv, nil
}

// Location loads the configured timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: scheduler.timezone: %w", err)
	}
	return loc, nil
}
