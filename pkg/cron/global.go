package cron

import (
	"context"
	"sync"
)

// The package-level functions route to one process-wide Scheduler, created
// lazily on first use. Registration calls are serialised by defaultMu.

var (
	defaultMu        sync.RWMutex
	defaultScheduler *Scheduler
)

// Default returns the process-wide scheduler, creating it if needed.
func Default() *Scheduler {
	defaultMu.RLock()
	s := defaultScheduler
	defaultMu.RUnlock()
	if s != nil {
		return s
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLocked()
}

// defaultLocked must be called with defaultMu held for writing.
func defaultLocked() *Scheduler {
	if defaultScheduler == nil {
		defaultScheduler = New()
	}
	return defaultScheduler
}

// SetDefault replaces the process-wide scheduler. Handles obtained before
// the call keep referring to the previous one.
func SetDefault(s *Scheduler) {
	defaultMu.Lock()
	defaultScheduler = s
	defaultMu.Unlock()
}

// Call registers a callback on the default scheduler.
func Call(fn func(ctx context.Context) error) *Handle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLocked().Call(fn)
}

// CallFunc registers a no-error callback on the default scheduler.
func CallFunc(fn func()) *Handle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLocked().CallFunc(fn)
}

// Command registers an external program on the default scheduler.
func Command(name string, args ...string) *Handle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLocked().Command(name, args...)
}

// RegisterJob registers j on the default scheduler.
func RegisterJob(j Job) *Handle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLocked().RegisterJob(j)
}

// Run runs the default scheduler until ctx is cancelled. The package lock
// is not held while the loop runs, so registration stays possible.
func Run(ctx context.Context) error {
	return Default().Run(ctx)
}
