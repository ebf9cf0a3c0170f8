// Package config handles YAML configuration loading, environment variable
// expansion, and validation for the cronox daemon.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Admin     AdminConfig     `yaml:"admin"`

	// Tracing enables OTLP export of execution spans. Nil disables it.
	Tracing *TracingConfig `yaml:"tracing,omitempty"`

	Env  EnvConfig   `yaml:"env"`
	Jobs []JobConfig `yaml:"jobs"`
}

// LogConfig selects the daemon's log handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Format is "text" (default) or "json".
	Format string `yaml:"format"`
}

// SchedulerConfig tunes the tick loop.
type SchedulerConfig struct {
	Tick      time.Duration `yaml:"tick"`
	DueWindow time.Duration `yaml:"due_window"`
	// Timezone is an IANA name used to evaluate expressions. Defaults to UTC.
	Timezone string `yaml:"timezone"`
}

// AdminConfig configures the HTTP admin server. An empty Bind disables it.
type AdminConfig struct {
	Bind        string `yaml:"bind"`
	BearerToken string `yaml:"bearer_token,omitempty"`
	BasicUser   string `yaml:"basic_user,omitempty"`
	BasicPass   string `yaml:"basic_pass,omitempty"`
}

// TracingConfig configures the OTLP/HTTP span exporter.
type TracingConfig struct {
	// Endpoint is host:port of the collector (e.g. "localhost:4318").
	Endpoint    string            `yaml:"endpoint"`
	Insecure    bool              `yaml:"insecure"`
	ServiceName string            `yaml:"service_name"`
	Headers     map[string]string `yaml:"headers,omitempty"`
}

// EnvConfig controls the environment given to command jobs.
type EnvConfig struct {
	// Inherit passes the daemon's environment to commands (after
	// stripping sensitive variables). Defaults to true.
	Inherit *bool `yaml:"inherit,omitempty"`
	// Strip lists extra variable name prefixes removed from commands.
	Strip []string `yaml:"strip,omitempty"`
	// Set adds or overrides variables.
	Set map[string]string `yaml:"set,omitempty"`
}

// InheritEnv reports whether commands inherit the daemon's environment.
func (e EnvConfig) InheritEnv() bool {
	return e.Inherit == nil || *e.Inherit
}

// JobConfig declares one scheduled command.
type JobConfig struct {
	Name string `yaml:"name"`
	// Command is split into argv with POSIX shell quoting rules. It is not
	// run through a shell.
	Command string `yaml:"command"`

	// At most one of Cron, EverySeconds and EveryMinutes may be set. With
	// none, the job runs every minute at second 0.
	Cron         string `yaml:"cron,omitempty"`
	EverySeconds int    `yaml:"every_seconds,omitempty"`
	EveryMinutes int    `yaml:"every_minutes,omitempty"`

	Immediately        bool   `yaml:"immediately,omitempty"`
	WithoutOverlapping bool   `yaml:"without_overlapping,omitempty"`
	Skip               bool   `yaml:"skip,omitempty"`
	QuietHours         string `yaml:"quiet_hours,omitempty"`
}
