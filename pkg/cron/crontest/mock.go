// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/cronox/pkg/cron"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	mu       sync.Mutex
	calls    int
	lastCall time.Time
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.NameVal }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run implements cron.Job and increments the call counter.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.lastCall = time.Now()
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the time of the last Run call.
func (m *MockJob) LastCall() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCall
}

// Event is one notification captured by RecordingObserver.
type Event struct {
	Kind    string // "dispatched", "skipped" or "finished"
	Job     string
	Trigger cron.Trigger
	Reason  cron.SkipReason
	Err     error
}

// RecordingObserver records every event it receives.
type RecordingObserver struct {
	mu       sync.Mutex
	events   []Event
	finished chan Event
}

// Compile-time interface check.
var _ cron.Observer = (*RecordingObserver)(nil)

// NewRecordingObserver returns an observer whose Finished channel buffers
// up to buffer finish events.
func NewRecordingObserver(buffer int) *RecordingObserver {
	return &RecordingObserver{finished: make(chan Event, buffer)}
}

// JobDispatched implements cron.Observer.
func (o *RecordingObserver) JobDispatched(job string, trigger cron.Trigger) {
	o.record(Event{Kind: "dispatched", Job: job, Trigger: trigger})
}

// JobSkipped implements cron.Observer.
func (o *RecordingObserver) JobSkipped(job string, reason cron.SkipReason) {
	o.record(Event{Kind: "skipped", Job: job, Reason: reason})
}

// JobFinished implements cron.Observer. The event is also sent on Finished
// when there is room.
func (o *RecordingObserver) JobFinished(job string, trigger cron.Trigger, _ time.Duration, err error) {
	ev := Event{Kind: "finished", Job: job, Trigger: trigger, Err: err}
	o.record(ev)
	select {
	case o.finished <- ev:
	default:
	}
}

// Finished delivers finish events as they happen.
func (o *RecordingObserver) Finished() <-chan Event { return o.finished }

func (o *RecordingObserver) record(ev Event) {
	o.mu.Lock()
	o.events = append(o.events, ev)
	o.mu.Unlock()
}

// Events returns a copy of all recorded events.
func (o *RecordingObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	dst := make([]Event, len(o.events))
	copy(dst, o.events)
	return dst
}

// Count returns how many events of kind were recorded for job.
func (o *RecordingObserver) Count(kind, job string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, ev := range o.events {
		if ev.Kind == kind && ev.Job == job {
			n++
		}
	}
	return n
}
