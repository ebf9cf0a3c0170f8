package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTick is the period of the evaluation loop.
	DefaultTick = time.Second

	tracerName = "github.com/flemzord/cronox/pkg/cron"
)

// ErrAlreadyRunning is returned by Run when the loop is already active.
var ErrAlreadyRunning = errors.New("cron: scheduler already running")

// Scheduler holds an append-only list of jobs and runs the tick loop.
// Each job carries its own locks; evaluating or dispatching one job never
// blocks another.
type Scheduler struct {
	mu      sync.RWMutex
	entries []*entry
	running bool

	logger   *slog.Logger
	tick     time.Duration
	window   time.Duration
	loc      *time.Location
	observer Observer
	tracer   trace.Tracer
	env      func() []string
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger. A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTick sets the evaluation period. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithDueWindow sets how far in the past a fire instant may lie and still
// count as due on the current tick. It defaults to the tick period and is
// raised to the tick when shorter, otherwise fire instants falling between
// two windows would be missed. A window longer than the tick fires the
// same instant on several ticks.
func WithDueWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithLocation sets the timezone expressions are evaluated in (default UTC).
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithObserver registers an Observer for dispatch events.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTracerProvider sets the provider used to trace executions.
// Defaults to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithCommandEnv sets the environment given to spawned commands. fn is
// called on every spawn. Without it commands inherit the process env.
func WithCommandEnv(fn func() []string) Option {
	return func(s *Scheduler) {
		s.env = fn
	}
}

// New creates a scheduler with no jobs.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:   slog.Default(),
		tick:     DefaultTick,
		loc:      time.UTC,
		observer: nopObserver{},
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.window < s.tick {
		s.window = s.tick
	}
	return s
}

// Tick returns the evaluation period.
func (s *Scheduler) Tick() time.Duration { return s.tick }

// DueWindow returns the due-ness tolerance.
func (s *Scheduler) DueWindow() time.Duration { return s.window }

// Location returns the timezone expressions are evaluated in.
func (s *Scheduler) Location() *time.Location { return s.loc }

// Call registers a callback with the default schedule (every minute at
// second 0). Errors returned by fn are logged and reported to the Observer.
func (s *Scheduler) Call(fn func(ctx context.Context) error) *Handle {
	return s.add("", callbackAction{fn: fn})
}

// CallFunc registers a callback that reports no error.
func (s *Scheduler) CallFunc(fn func()) *Handle {
	return s.Call(func(context.Context) error {
		fn()
		return nil
	})
}

// Command registers an external program. Each dispatch spawns name with
// args, stdout and stderr discarded, without waiting for it to exit.
func (s *Scheduler) Command(name string, args ...string) *Handle {
	return s.add(filepath.Base(name), commandAction{
		name: name,
		args: append([]string(nil), args...),
		env:  s.env,
	})
}

// RegisterJob registers j under its name and applies its Schedule.
// An invalid schedule is recorded on the returned Handle.
func (s *Scheduler) RegisterJob(j Job) *Handle {
	h := s.add(j.Name(), jobAction{job: j})
	if spec := j.Schedule(); spec != "" {
		h.Cron(spec)
	}
	return h
}

func (s *Scheduler) add(name string, action Action) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.entries)
	if name == "" {
		name = fmt.Sprintf("job-%d", idx)
	}
	s.entries = append(s.entries, newEntry(idx, name, action))
	return &Handle{s: s, index: idx}
}

func (s *Scheduler) entryAt(index int) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[index]
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*entry(nil), s.entries...)
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns the status of every job in registration order.
func (s *Scheduler) Entries() []EntryStatus {
	now := s.now().In(s.loc)
	entries := s.snapshot()
	out := make([]EntryStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.status(now))
	}
	return out
}

// Err returns the configuration errors recorded on any handle, or nil.
func (s *Scheduler) Err() error {
	var errs []error
	for _, e := range s.snapshot() {
		e.mu.Lock()
		if len(e.errs) > 0 {
			errs = append(errs, fmt.Errorf("cron: job %q: %w", e.label(), errors.Join(e.errs...)))
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Running reports whether Run is active.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Run evaluates jobs every tick until ctx is cancelled, then returns nil.
// It refuses to start while configuration errors are pending. Executions
// in flight when ctx is cancelled are not waited for nor cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	execCtx := context.WithoutCancel(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("cron: scheduler started", "jobs", s.Len(), "tick", s.tick, "tz", s.loc.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cron: scheduler stopped")
			return nil
		case t := <-ticker.C:
			s.evaluate(ctx, execCtx, t.In(s.loc))
		}
	}
}

// evaluate runs one tick over every job in registration order.
func (s *Scheduler) evaluate(ctx, execCtx context.Context, now time.Time) {
	for _, e := range s.snapshot() {
		s.evaluateEntry(ctx, execCtx, e, now)
	}
}

func (s *Scheduler) evaluateEntry(ctx, execCtx context.Context, e *entry, now time.Time) {
	// The predicate is user code; it runs outside the options lock.
	opts := e.snapshotOptions()
	if opts.skip.ShouldSkip(ctx) {
		if (opts.immediate && !opts.immediateTriggered) || s.isDue(e, now) {
			s.logger.Debug("cron: job skipped", "job", e.label())
			s.observer.JobSkipped(e.label(), SkipPredicate)
		}
		return
	}

	e.mu.Lock()
	if e.options.immediate && !e.options.immediateTriggered {
		e.options.immediateTriggered = true
		e.mu.Unlock()
		s.dispatch(execCtx, e, TriggerImmediate, false)
		return
	}

	if e.options.locked {
		e.mu.Unlock()
		if s.isDue(e, now) {
			s.logger.Warn("cron: job still running, skipping tick", "job", e.label())
			s.observer.JobSkipped(e.label(), SkipOverlap)
		}
		return
	}

	if !s.isDue(e, now) {
		e.mu.Unlock()
		return
	}

	guarded := e.options.withoutOverlapping
	if guarded {
		e.options.locked = true
	}
	e.mu.Unlock()

	s.dispatch(execCtx, e, TriggerSchedule, guarded)
}

// isDue reports whether e has a fire instant in (now-window, now].
func (s *Scheduler) isDue(e *entry, now time.Time) bool {
	next := e.expression().Next(now.Add(-s.window))
	if next.IsZero() {
		return false
	}
	gap := next.Sub(now)
	return gap > -s.window && gap <= 0
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, trigger Trigger, guarded bool) {
	name := e.label()
	runID := uuid.NewString()

	e.dispatched.Add(1)
	e.running.Add(1)
	s.observer.JobDispatched(name, trigger)
	s.logger.Debug("cron: job dispatched", "job", name, "run_id", runID, "trigger", string(trigger))

	go s.execute(ctx, e, name, runID, trigger, guarded)
}

func (s *Scheduler) execute(ctx context.Context, e *entry, name, runID string, trigger Trigger, guarded bool) {
	ctx, span := s.tracer.Start(ctx, "cron.execute", trace.WithAttributes(
		attribute.String("cron.job", name),
		attribute.String("cron.expression", e.expression().String()),
		attribute.String("cron.trigger", string(trigger)),
		attribute.String("cron.run_id", runID),
	))
	defer span.End()

	start := time.Now()
	e.lastStart.Store(start.UnixNano())

	err := safeRun(ctx, e.action)
	elapsed := time.Since(start)

	if guarded {
		e.update(func(o *jobOptions) { o.locked = false })
	}
	e.running.Add(-1)

	if err != nil {
		e.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		args := []any{"job", name, "run_id", runID, "error", err}
		var pe *PanicError
		if errors.As(err, &pe) {
			args = append(args, "stack", string(pe.Stack))
		}
		s.logger.Error("cron: job failed", args...)
	} else {
		s.logger.Debug("cron: job completed", "job", name, "run_id", runID, "elapsed", elapsed)
	}

	s.observer.JobFinished(name, trigger, elapsed, err)
}

// PanicError is returned for an action that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("cron: job panicked: %v", e.Value)
}

// safeRun runs a and converts a panic into a *PanicError.
func safeRun(ctx context.Context, a Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			err = &PanicError{Value: r, Stack: stack[:n]}
		}
	}()
	return a.Run(ctx)
}
