// Package reload watches the configuration file and drives scheduler
// rebuilds from file changes, SIGHUP and the admin API.
package reload

import (
	"context"
	"crypto/sha256"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the path to the configuration file to watch.
	ConfigPath string

	// PollInterval is how often to check for file changes.
	// Defaults to 5 seconds if zero.
	PollInterval time.Duration
}

func (c WatcherConfig) pollIntervalOrDefault() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return defaultPollInterval
}

// Event reports that the watched file's content changed.
type Event struct {
	ConfigPath string
	ModTime    time.Time
}

// fileState identifies one version of the watched file.
type fileState struct {
	modTime time.Time
	size    int64
	digest  [sha256.Size]byte
}

// Watcher polls a configuration file. A touch without a content change
// does not produce an event.
type Watcher struct {
	cfg     WatcherConfig
	events  chan Event
	stop    chan struct{}
	stopped chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	return &Watcher{
		cfg:     cfg,
		events:  make(chan Event, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start records the current file contents and begins polling. Only the
// first call has an effect.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.started.Store(true)
		last, _ := w.stat(fileState{})
		go w.poll(ctx, last)
	})
}

// Events returns the channel of change events. It holds at most one
// pending event; further changes before it is read are coalesced.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher and waits for the polling goroutine to exit.
// Safe to call multiple times and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	if w.started.Load() {
		<-w.stopped
	}
}

func (w *Watcher) poll(ctx context.Context, last fileState) {
	defer close(w.stopped)

	ticker := time.NewTicker(w.cfg.pollIntervalOrDefault())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			current, ok := w.stat(last)
			if !ok {
				continue
			}
			changed := current.digest != last.digest
			last = current
			if !changed {
				continue
			}
			select {
			case w.events <- Event{ConfigPath: w.cfg.ConfigPath, ModTime: current.modTime}:
			default:
			}
		}
	}
}

// stat returns the current file state. The content is only hashed when the
// modification time or size moved away from prev.
func (w *Watcher) stat(prev fileState) (fileState, bool) {
	info, err := os.Stat(w.cfg.ConfigPath)
	if err != nil {
		return fileState{}, false
	}
	st := fileState{modTime: info.ModTime(), size: info.Size()}
	if st.modTime.Equal(prev.modTime) && st.size == prev.size {
		return prev, true
	}
	data, err := os.ReadFile(w.cfg.ConfigPath)
	if err != nil {
		return fileState{}, false
	}
	st.digest = sha256.Sum256(data)
	return st, true
}
