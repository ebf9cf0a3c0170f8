// Package security builds the environment handed to command jobs and
// keeps secrets out of daemon logs.
package security

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// sensitiveEnvPrefixes are stripped from every command environment.
var sensitiveEnvPrefixes = []string{
	"AWS_SECRET",
	"AWS_SESSION_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"GITLAB_TOKEN",
	"SLACK_TOKEN",
	"SLACK_BOT_TOKEN",
	"SMTP_PASSWORD",
	"CRONOX_ADMIN_",
}

// sensitiveEnvExact are stripped by exact name. DATABASE_URL and DB_PASSWORD
// are exact-only so DB_PORT or DATABASE_HOST survive.
var sensitiveEnvExact = map[string]struct{}{
	"AWS_SECRET_ACCESS_KEY": {},
	"DATABASE_URL":          {},
	"DB_PASSWORD":           {},
	"REDIS_PASSWORD":        {},
}

// EnvPolicy describes the environment of spawned commands.
type EnvPolicy struct {
	// Inherit starts from the daemon's own environment.
	Inherit bool
	// Strip lists extra name prefixes to remove, case-insensitively.
	Strip []string
	// Set adds or overrides variables after stripping.
	Set map[string]string
	// Redactor, when non-nil, masks its secrets in inherited values.
	Redactor *Redactor
}

// Environ returns the command environment for the current process state.
// It is called on every spawn so changes to the daemon's env are picked up.
func (p EnvPolicy) Environ() []string {
	var base []string
	if p.Inherit {
		base = os.Environ()
	}
	return p.build(base)
}

func (p EnvPolicy) build(base []string) []string {
	result := make([]string, 0, len(base)+len(p.Set))

	for _, entry := range base {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || p.stripped(key) {
			continue
		}
		if _, override := p.Set[key]; override {
			continue
		}
		if p.Redactor != nil {
			entry = p.Redactor.Redact(entry)
		}
		result = append(result, entry)
	}

	for _, key := range slices.Sorted(maps.Keys(p.Set)) {
		result = append(result, key+"="+p.Set[key])
	}
	return result
}

func (p EnvPolicy) stripped(name string) bool {
	if isSensitiveEnvVar(name) {
		return true
	}
	upper := strings.ToUpper(name)
	for _, prefix := range p.Strip {
		if prefix != "" && strings.HasPrefix(upper, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

// isSensitiveEnvVar checks if an environment variable name matches
// a known sensitive prefix or exact name.
func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)

	if _, ok := sensitiveEnvExact[upper]; ok {
		return true
	}

	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}

	return false
}
