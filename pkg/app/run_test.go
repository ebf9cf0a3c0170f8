package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/cronox/internal/config"
	"github.com/flemzord/cronox/internal/security"
	"github.com/flemzord/cronox/internal/telemetry"
	"github.com/flemzord/cronox/pkg/cron"
	"github.com/flemzord/cronox/pkg/cron/crontest"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func testDaemon() *daemon {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newDaemon(logger, security.NewRedactor(), nil, telemetry.Noop())
}

func parse(t *testing.T, raw string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return cfg
}

const twoJobs = `
version: "1"
jobs:
  - name: backup
    command: /usr/bin/backup --full
    cron: "0 30 2 * * *"
    without_overlapping: true
  - name: ping
    command: echo "hello world"
    every_seconds: 10
    quiet_hours: "22:00-06:00"
`

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf, nil)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if rec["msg"] != "hello" || rec["k"] != "v" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf, nil)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(config.LogConfig{Level: "loud"}, io.Discard, nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLogger_Redacts(t *testing.T) {
	r := security.NewRedactor()
	r.AddLiteral("s3cr3t-admin-token")

	var buf bytes.Buffer
	logger, err := NewLogger(config.LogConfig{Level: "info"}, &buf, r)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("auth", "token", "s3cr3t-admin-token")

	if strings.Contains(buf.String(), "s3cr3t-admin-token") {
		t.Errorf("secret leaked: %q", buf.String())
	}
}

func TestRegisterSecrets(t *testing.T) {
	cfg := parse(t, `
version: "1"
admin:
  bind: 127.0.0.1:0
  bearer_token: bearer-token-value
tracing:
  endpoint: localhost:4318
  headers:
    Authorization: otlp-header-secret
`)
	r := security.NewRedactor()
	registerSecrets(r, cfg)

	out := r.Redact("bearer-token-value otlp-header-secret")
	if strings.Contains(out, "bearer-token-value") || strings.Contains(out, "otlp-header-secret") {
		t.Errorf("Redact = %q", out)
	}
}

func TestBuildScheduler(t *testing.T) {
	d := testDaemon()
	s, err := d.buildScheduler(parse(t, twoJobs))
	if err != nil {
		t.Fatalf("buildScheduler: %v", err)
	}

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Name != "backup" || entries[0].Expression != "0 30 2 * * *" || !entries[0].WithoutOverlapping {
		t.Errorf("backup = %+v", entries[0])
	}
	if entries[1].Name != "ping" || entries[1].Expression != "*/10 * * * * *" || !entries[1].SkipDeferred {
		t.Errorf("ping = %+v", entries[1])
	}
	if s.Running() {
		t.Error("buildScheduler must not start the scheduler")
	}
}

func TestApply_SwapsScheduler(t *testing.T) {
	d := testDaemon()
	ctx := context.Background()

	if err := d.apply(ctx, parse(t, twoJobs)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	first := d.scheduler()
	waitFor(t, "first scheduler running", first.Running)

	next := parse(t, `
version: "1"
jobs:
  - name: only
    command: "true"
`)
	if err := d.apply(ctx, next); err != nil {
		t.Fatalf("apply: %v", err)
	}
	second := d.scheduler()
	if second == first {
		t.Fatal("scheduler was not replaced")
	}
	if first.Running() {
		t.Error("old scheduler still running after swap")
	}
	waitFor(t, "second scheduler running", second.Running)
	if second.Len() != 1 {
		t.Errorf("Len = %d, want 1", second.Len())
	}

	d.stop()
	if second.Running() {
		t.Error("scheduler still running after stop")
	}
}

func TestApply_KeepsSchedulerOnError(t *testing.T) {
	d := testDaemon()
	ctx := context.Background()
	t.Cleanup(d.stop)

	if err := d.apply(ctx, parse(t, twoJobs)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	before := d.scheduler()

	// Bypasses Validate so the bad expression reaches the scheduler.
	bad, err := config.Parse([]byte(`
version: "1"
jobs:
  - name: broken
    command: "true"
    cron: "not a cron"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := d.apply(ctx, bad); err == nil {
		t.Fatal("expected error for invalid expression")
	}
	if d.scheduler() != before {
		t.Error("scheduler replaced despite failed apply")
	}
	waitFor(t, "scheduler still running", before.Running)
}

func TestRestartOnly(t *testing.T) {
	base := parse(t, twoJobs)

	same := parse(t, twoJobs)
	if got := restartOnly(base, same); len(got) != 0 {
		t.Errorf("restartOnly(same) = %v", got)
	}

	changed := parse(t, twoJobs+`
log:
  format: json
admin:
  bind: 127.0.0.1:0
tracing:
  endpoint: localhost:4318
`)
	got := restartOnly(base, changed)
	want := []string{"log", "admin", "tracing"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("restartOnly = %v, want %v", got, want)
	}
}

func TestRun_ReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronox.yaml")
	writeConfig(t, path, twoJobs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, RunParams{
			ConfigPath:   path,
			Version:      "test",
			LogOutput:    logs,
			PollInterval: 20 * time.Millisecond,
		})
	}()

	waitFor(t, "startup", func() bool { return strings.Contains(logs.String(), "cronox started") })

	writeConfig(t, path, `
version: "1"
jobs:
  - name: only
    command: "true"
    cron: "0 0 0 1 1 *"
`)
	waitFor(t, "reload", func() bool { return strings.Contains(logs.String(), "jobs=1") })

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !strings.Contains(logs.String(), "shutdown complete") {
		t.Errorf("missing shutdown log:\n%s", logs.String())
	}
}

func TestRun_ForwardsEventsToObserver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronox.yaml")
	writeConfig(t, path, `
version: "1"
jobs:
  - name: warmup
    command: "true"
    cron: "0 0 0 1 1 *"
    immediately: true
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := crontest.NewRecordingObserver(1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, RunParams{ConfigPath: path, LogOutput: io.Discard, Observer: rec})
	}()

	select {
	case ev := <-rec.Finished():
		if ev.Job != "warmup" || ev.Trigger != cron.TriggerImmediate {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("observer saw no finished execution")
	}
	if got := rec.Count("dispatched", "warmup"); got != 1 {
		t.Errorf("dispatched = %d, want 1", got)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronox.yaml")
	writeConfig(t, path, `
version: "1"
jobs:
  - name: broken
    command: "true"
    every_seconds: 90
`)

	err := Run(context.Background(), RunParams{ConfigPath: path, LogOutput: io.Discard})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "every_seconds") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_MissingConfig(t *testing.T) {
	err := Run(context.Background(), RunParams{
		ConfigPath: filepath.Join(t.TempDir(), "absent.yaml"),
		LogOutput:  io.Discard,
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
