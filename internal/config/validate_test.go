package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/cronox/pkg/cron"
)

func validConfig() *Config {
	cfg := &Config{
		Version: "1",
		Jobs: []JobConfig{
			{Name: "backup", Command: "/bin/true", Cron: "0 0 3 * * *"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()

	if err := Validate(validConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoJobs(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Jobs = nil
	if err := Validate(cfg); err != nil {
		t.Fatalf("an empty job list is valid: %v", err)
	}
}

func TestValidate_Version(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Version = ""
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "version field is required") {
		t.Errorf("missing version: err = %v", err)
	}

	cfg.Version = "2"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("bad version: err = %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "unknown log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative tick", func(c *Config) { c.Scheduler.Tick = -time.Second }, "scheduler.tick"},
		{"tiny tick", func(c *Config) { c.Scheduler.Tick = time.Millisecond }, "at least 10ms"},
		{"window below tick", func(c *Config) { c.Scheduler.DueWindow = 500 * time.Millisecond }, "must not be shorter than scheduler.tick"},
		{"job interval descriptor", func(c *Config) { c.Jobs[0].Cron = "@every 5s" }, "interval schedules are not supported"},
		{"timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "scheduler.timezone"},
		{"basic auth half", func(c *Config) { c.Admin = AdminConfig{Bind: ":9090", BasicUser: "u"} }, "set together"},
		{"creds without bind", func(c *Config) { c.Admin = AdminConfig{BearerToken: "t"} }, "admin.bind is empty"},
		{"tracing endpoint", func(c *Config) { c.Tracing = &TracingConfig{} }, "tracing.endpoint"},
		{"job name", func(c *Config) { c.Jobs[0].Name = "" }, "name is required"},
		{"job command", func(c *Config) { c.Jobs[0].Command = "  " }, "command is required"},
		{"job quoting", func(c *Config) { c.Jobs[0].Command = `echo "unterminated` }, "command"},
		{"job cron", func(c *Config) { c.Jobs[0].Cron = "* * * * *" }, "invalid expression"},
		{"job seconds", func(c *Config) { c.Jobs[0].Cron = ""; c.Jobs[0].EverySeconds = 90 }, "every_seconds"},
		{"job minutes", func(c *Config) { c.Jobs[0].Cron = ""; c.Jobs[0].EveryMinutes = -1 }, "every_minutes"},
		{"job exclusive", func(c *Config) { c.Jobs[0].EveryMinutes = 5 }, "mutually exclusive"},
		{"job quiet", func(c *Config) { c.Jobs[0].QuietHours = "late" }, "quiet hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DuplicateNames(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Jobs = append(cfg.Jobs, JobConfig{Name: "backup", Command: "/bin/false"})

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate name (also jobs[0])") {
		t.Errorf("err = %v, want duplicate name error", err)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Version = "9"
	cfg.Log.Format = "xml"
	cfg.Jobs[0].Cron = "bad"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, cron.ErrInvalidExpression) {
		t.Errorf("joined error should wrap ErrInvalidExpression: %v", err)
	}
	if n := len(strings.Split(err.Error(), "\n")); n != 3 {
		t.Errorf("got %d errors, want 3:\n%v", n, err)
	}
}
