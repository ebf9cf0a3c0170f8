package cron

import (
	"sync"
	"sync/atomic"
	"time"
)

// jobOptions is the mutable control state of an entry. It is shared between
// the tick loop and in-flight executions, guarded by entry.mu.
type jobOptions struct {
	skip               Skip
	immediate          bool
	immediateTriggered bool
	withoutOverlapping bool
	// locked is only written when withoutOverlapping is set.
	locked bool
}

// entry is the unit of scheduling: an expression, an action and options.
// Entries are never removed, so their index in Scheduler.entries is stable.
type entry struct {
	index  int
	action Action

	exprMu sync.RWMutex
	expr   Expression
	name   string

	mu      sync.Mutex
	options jobOptions
	errs    []error // configuration errors recorded through a Handle

	running    atomic.Int32
	dispatched atomic.Int64
	failures   atomic.Int64
	lastStart  atomic.Int64 // unix nanoseconds, 0 = never
}

func newEntry(index int, name string, action Action) *entry {
	return &entry{
		index:  index,
		name:   name,
		action: action,
		expr:   defaultExpression(),
	}
}

func (e *entry) expression() Expression {
	e.exprMu.RLock()
	defer e.exprMu.RUnlock()
	return e.expr
}

func (e *entry) setExpression(expr Expression) {
	e.exprMu.Lock()
	e.expr = expr
	e.exprMu.Unlock()
}

func (e *entry) label() string {
	e.exprMu.RLock()
	defer e.exprMu.RUnlock()
	return e.name
}

func (e *entry) setName(name string) {
	e.exprMu.Lock()
	e.name = name
	e.exprMu.Unlock()
}

func (e *entry) update(fn func(o *jobOptions)) {
	e.mu.Lock()
	fn(&e.options)
	e.mu.Unlock()
}

func (e *entry) snapshotOptions() jobOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options
}

// EntryStatus is a point-in-time view of one registered job.
type EntryStatus struct {
	Index              int       `json:"index"`
	Name               string    `json:"name"`
	Expression         string    `json:"expression"`
	Action             string    `json:"action"`
	Next               time.Time `json:"next"`
	Immediate          bool      `json:"immediate"`
	ImmediateTriggered bool      `json:"immediate_triggered"`
	WithoutOverlapping bool      `json:"without_overlapping"`
	Locked             bool      `json:"locked"`
	SkipDeferred       bool      `json:"skip_deferred"`
	Running            int       `json:"running"`
	Dispatched         int64     `json:"dispatched"`
	Failures           int64     `json:"failures"`
	LastStart          time.Time `json:"last_start,omitzero"`
}

func (e *entry) status(now time.Time) EntryStatus {
	expr := e.expression()
	opts := e.snapshotOptions()
	st := EntryStatus{
		Index:              e.index,
		Name:               e.label(),
		Expression:         expr.String(),
		Action:             e.action.String(),
		Next:               expr.Next(now),
		Immediate:          opts.immediate,
		ImmediateTriggered: opts.immediateTriggered,
		WithoutOverlapping: opts.withoutOverlapping,
		Locked:             opts.locked,
		SkipDeferred:       opts.skip.IsDeferred(),
		Running:            int(e.running.Load()),
		Dispatched:         e.dispatched.Load(),
		Failures:           e.failures.Load(),
	}
	if ns := e.lastStart.Load(); ns != 0 {
		st.LastStart = time.Unix(0, ns)
	}
	return st
}
