package cron

import (
	"context"
	"errors"
	"time"
)

// Handle configures one registered job. Every method mutates the job in
// place and returns the same Handle, so calls chain in any order; the last
// call for a given field wins.
//
// A method that would produce an invalid expression leaves the expression
// unchanged and records the error, retrievable through Err.
type Handle struct {
	s     *Scheduler
	index int
}

// Index returns the job's registration position.
func (h *Handle) Index() int { return h.index }

// Expression returns the job's current expression text.
func (h *Handle) Expression() string {
	return h.entry().expression().String()
}

// Err returns the configuration errors recorded on this job, or nil.
func (h *Handle) Err() error {
	e := h.entry()
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

func (h *Handle) entry() *entry { return h.s.entryAt(h.index) }

func (h *Handle) fail(err error) *Handle {
	e := h.entry()
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
	h.s.logger.Warn("cron: invalid job configuration", "job", e.label(), "error", err)
	return h
}

// Name sets the label used in logs, metrics and status output.
func (h *Handle) Name(name string) *Handle {
	if name != "" {
		h.entry().setName(name)
	}
	return h
}

// Cron replaces the whole expression.
func (h *Handle) Cron(expression string) *Handle {
	expr, err := ParseExpression(expression)
	if err != nil {
		return h.fail(err)
	}
	h.entry().setExpression(expr)
	return h
}

// splice replaces one field of the current expression.
func (h *Handle) splice(pos int, value string) *Handle {
	e := h.entry()
	e.exprMu.Lock()
	next, err := e.expr.WithField(pos, value)
	if err == nil {
		e.expr = next
	}
	e.exprMu.Unlock()
	if err != nil {
		return h.fail(err)
	}
	return h
}

func (h *Handle) spliceStep(pos, n int) *Handle {
	value, err := step(n)
	if err != nil {
		return h.fail(err)
	}
	return h.splice(pos, value)
}

// EverySecond sets the second field to "*".
func (h *Handle) EverySecond() *Handle { return h.splice(FieldSecond, "*") }

// EverySeconds sets the second field to "*/n".
func (h *Handle) EverySeconds(n int) *Handle { return h.spliceStep(FieldSecond, n) }

func (h *Handle) EveryFiveSeconds() *Handle    { return h.EverySeconds(5) }
func (h *Handle) EveryTenSeconds() *Handle     { return h.EverySeconds(10) }
func (h *Handle) EveryFifteenSeconds() *Handle { return h.EverySeconds(15) }
func (h *Handle) EveryThirtySeconds() *Handle  { return h.EverySeconds(30) }

// EveryMinute sets the minute field to "*".
func (h *Handle) EveryMinute() *Handle { return h.splice(FieldMinute, "*") }

// EveryMinutes sets the minute field to "*/n".
func (h *Handle) EveryMinutes(n int) *Handle { return h.spliceStep(FieldMinute, n) }

func (h *Handle) EveryTwoMinutes() *Handle     { return h.EveryMinutes(2) }
func (h *Handle) EveryThreeMinutes() *Handle   { return h.EveryMinutes(3) }
func (h *Handle) EveryFourMinutes() *Handle    { return h.EveryMinutes(4) }
func (h *Handle) EveryFiveMinutes() *Handle    { return h.EveryMinutes(5) }
func (h *Handle) EveryTenMinutes() *Handle     { return h.EveryMinutes(10) }
func (h *Handle) EveryFifteenMinutes() *Handle { return h.EveryMinutes(15) }
func (h *Handle) EveryThirtyMinutes() *Handle  { return h.EveryMinutes(30) }

// Skip sets a fixed skip value.
func (h *Handle) Skip(skip bool) *Handle {
	return h.setSkip(SkipIf(skip))
}

// SkipWhen sets a predicate evaluated on every tick, before any other check.
// A true result suppresses the job for that tick only; the immediate latch
// and overlap lock are left untouched.
func (h *Handle) SkipWhen(fn func(ctx context.Context) bool) *Handle {
	return h.setSkip(SkipWhen(fn))
}

// SkipDuring skips the job while the wall clock in loc is inside q.
// A nil loc uses the scheduler's location.
func (h *Handle) SkipDuring(q QuietHours, loc *time.Location) *Handle {
	if loc == nil {
		loc = h.s.loc
	}
	return h.setSkip(skipDuring(q, loc, h.s.now))
}

func (h *Handle) setSkip(skip Skip) *Handle {
	h.entry().update(func(o *jobOptions) { o.skip = skip })
	return h
}

// Immediate sets whether the job fires once on the first tick that sees it,
// regardless of its expression. The immediate fire is not overlap-guarded
// and happens at most once per job.
func (h *Handle) Immediate(immediate bool) *Handle {
	h.entry().update(func(o *jobOptions) { o.immediate = immediate })
	return h
}

// Immediately is Immediate(true).
func (h *Handle) Immediately() *Handle { return h.Immediate(true) }

// WithoutOverlapping prevents a scheduled dispatch while a previous
// scheduled execution of the same job is still running.
func (h *Handle) WithoutOverlapping() *Handle {
	h.entry().update(func(o *jobOptions) { o.withoutOverlapping = true })
	return h
}
