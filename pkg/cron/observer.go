package cron

import "time"

// Trigger identifies why an execution was dispatched.
type Trigger string

const (
	// TriggerSchedule is a dispatch because the expression was due.
	TriggerSchedule Trigger = "schedule"
	// TriggerImmediate is the one-shot dispatch requested by Immediately.
	TriggerImmediate Trigger = "immediate"
)

// SkipReason identifies why a due job was not dispatched.
type SkipReason string

const (
	// SkipPredicate means the job's skip predicate returned true.
	SkipPredicate SkipReason = "predicate"
	// SkipOverlap means a previous execution still holds the overlap lock.
	SkipOverlap SkipReason = "overlap"
)

// Observer receives scheduling events. Implementations must be safe for
// concurrent use: JobFinished is called from execution goroutines.
type Observer interface {
	JobDispatched(job string, trigger Trigger)
	JobSkipped(job string, reason SkipReason)
	JobFinished(job string, trigger Trigger, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) JobDispatched(string, Trigger)                     {}
func (nopObserver) JobSkipped(string, SkipReason)                     {}
func (nopObserver) JobFinished(string, Trigger, time.Duration, error) {}
