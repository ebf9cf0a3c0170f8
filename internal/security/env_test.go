package security

import (
	"slices"
	"strings"
	"testing"
)

func TestIsSensitiveEnvVar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sensitive bool
	}{
		{"AWS_SECRET_ACCESS_KEY", true},
		{"AWS_SESSION_TOKEN_STUFF", true},
		{"GITHUB_TOKEN", true},
		{"gh_token", true},
		{"SLACK_BOT_TOKEN", true},
		{"DATABASE_URL", true},
		{"CRONOX_ADMIN_TOKEN", true},
		{"DB_PORT", false},
		{"DATABASE_HOST", false},
		{"PATH", false},
		{"HOME", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isSensitiveEnvVar(tt.name); got != tt.sensitive {
				t.Errorf("isSensitiveEnvVar(%q) = %v, want %v", tt.name, got, tt.sensitive)
			}
		})
	}
}

func TestEnvPolicy_Build(t *testing.T) {
	t.Parallel()

	base := []string{
		"PATH=/usr/bin:/bin",
		"HOME=/root",
		"GITHUB_TOKEN=ghp_x",
		"INTERNAL_KEY=abc",
		"LANG=C",
		"malformed",
	}
	p := EnvPolicy{
		Strip: []string{"internal_"},
		Set:   map[string]string{"LANG": "en_US.UTF-8", "JOB_ENV": "prod"},
	}

	got := p.build(base)
	want := []string{"PATH=/usr/bin:/bin", "HOME=/root", "JOB_ENV=prod", "LANG=en_US.UTF-8"}
	if !slices.Equal(got, want) {
		t.Errorf("build() = %q, want %q", got, want)
	}
}

func TestEnvPolicy_RedactsInheritedValues(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("hunter2hunter2")
	p := EnvPolicy{Redactor: r}

	got := p.build([]string{"BACKUP_URL=s3://bucket?key=hunter2hunter2"})
	if len(got) != 1 || strings.Contains(got[0], "hunter2hunter2") {
		t.Errorf("build() = %q, secret not redacted", got)
	}
}

func TestEnvPolicy_Environ(t *testing.T) {
	t.Setenv("CRONOX_TEST_VISIBLE", "yes")
	t.Setenv("GITHUB_TOKEN", "ghp_should_not_leak")

	inherited := EnvPolicy{Inherit: true}.Environ()
	if !slices.Contains(inherited, "CRONOX_TEST_VISIBLE=yes") {
		t.Error("inherited environment missing CRONOX_TEST_VISIBLE")
	}
	for _, entry := range inherited {
		if strings.HasPrefix(entry, "GITHUB_TOKEN=") {
			t.Errorf("sensitive variable leaked: %s", entry)
		}
	}

	clean := EnvPolicy{Set: map[string]string{"PATH": "/bin"}}.Environ()
	if !slices.Equal(clean, []string{"PATH=/bin"}) {
		t.Errorf("non-inherited Environ() = %q", clean)
	}
}
