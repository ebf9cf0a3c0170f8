// Package cron provides an in-process periodic job scheduler. Callbacks and
// external commands are registered against six-field cron expressions
// (second minute hour day-of-month month day-of-week); a tick loop evaluates
// every job once per tick and dispatches due jobs on their own goroutines.
//
// Registration returns a *Handle for chained configuration:
//
//	s := cron.New()
//	s.CallFunc(report).EveryFiveMinutes().WithoutOverlapping()
//	s.Command("/usr/local/bin/backup", "--full").Cron("0 0 3 * * *")
//	if err := s.Err(); err != nil {
//		return err
//	}
//	return s.Run(ctx)
//
// Each tick a job is evaluated in a fixed order: skip predicate, one-shot
// immediate fire, overlap lock, then due-ness against its expression.
package cron

import "context"

// Job is a named periodic task. It is the interface form of Call for types
// that carry their own name and default schedule.
type Job interface {
	// Name returns an identifier used for logging and metrics.
	Name() string

	// Schedule returns a six-field cron expression (e.g. "0 */5 * * * *").
	// An empty string keeps the default of once per minute.
	Schedule() string

	// Run executes the job. The context is never cancelled by the scheduler.
	Run(ctx context.Context) error
}
