package cron

import (
	"context"
	"time"
)

// Skip decides whether a job is suppressed on a given tick. It is either a
// fixed value or a predicate evaluated fresh on every tick.
type Skip struct {
	fixed bool
	fn    func(ctx context.Context) bool
}

// SkipIf returns a Skip with a fixed value.
func SkipIf(v bool) Skip { return Skip{fixed: v} }

// SkipWhen returns a Skip backed by fn. A nil fn never skips.
func SkipWhen(fn func(ctx context.Context) bool) Skip { return Skip{fn: fn} }

// ShouldSkip evaluates the skip decision.
func (s Skip) ShouldSkip(ctx context.Context) bool {
	if s.fn != nil {
		return s.fn(ctx)
	}
	return s.fixed
}

// IsDeferred reports whether s is backed by a predicate.
func (s Skip) IsDeferred() bool { return s.fn != nil }

// skipDuring builds a predicate that is true while now falls within q.
func skipDuring(q QuietHours, loc *time.Location, now func() time.Time) Skip {
	if loc == nil {
		loc = time.UTC
	}
	return SkipWhen(func(context.Context) bool {
		return q.IsQuiet(now().In(loc))
	})
}
