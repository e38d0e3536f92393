// Package watch notices writes made to the shared store by other processes
// and reloads the in-memory state from them.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/storage"
)

// DefaultInterval is the poll period used when none is configured
const DefaultInterval = time.Second

// RevisionSource reports per-key write revisions of a shared store
type RevisionSource interface {
	// Revisions returns the current revision of every stored key
	Revisions() ([]storage.Revision, error)

	// WriterID identifies writes made through this handle
	WriterID() string
}

// Change reports that key was written by another process
type Change struct {
	Key storage.Key
}

// Watcher polls a RevisionSource and reports keys whose latest write came
// from a different writer. The first poll only records a baseline.
type Watcher struct {
	source   RevisionSource
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
	keys     []storage.Key

	primed bool
	last   map[storage.Key]int64
}

// Option configures a Watcher
type Option func(*Watcher)

// WithClock sets the clock driving the poll ticker
func WithClock(c clock.Clock) Option {
	return func(w *Watcher) {
		w.clock = c
	}
}

// WithInterval sets the poll period; non-positive values are ignored
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger for poll failures
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher for the tasks and settings keys
func NewWatcher(source RevisionSource, opts ...Option) *Watcher {
	w := &Watcher{
		source:   source,
		clock:    clock.Real(),
		interval: DefaultInterval,
		logger:   slog.Default(),
		keys:     []storage.Key{storage.KeyTasks, storage.KeySettings},
		last:     make(map[storage.Key]int64),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Poll reads the current revisions once and returns the watched keys that
// another writer has changed since the previous poll, in key order. A key
// that disappears is reported as changed.
func (w *Watcher) Poll() ([]Change, error) {
	revisions, err := w.source.Revisions()
	if err != nil {
		return nil, fmt.Errorf("reading revisions: %w", err)
	}

	current := make(map[storage.Key]storage.Revision, len(revisions))
	for _, rev := range revisions {
		if slices.Contains(w.keys, rev.Key) {
			current[rev.Key] = rev
		}
	}

	own := w.source.WriterID()
	var changes []Change
	for _, key := range w.keys {
		rev, present := current[key]
		previous, known := w.last[key]

		switch {
		case present && (!known || rev.Revision != previous):
			w.last[key] = rev.Revision
			if w.primed && rev.Writer != own {
				changes = append(changes, Change{Key: key})
			}
		case !present && known:
			delete(w.last, key)
			if w.primed {
				changes = append(changes, Change{Key: key})
			}
		}
	}
	w.primed = true

	slices.SortFunc(changes, func(a, b Change) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return changes, nil
}

// Run polls on every tick until ctx is done, sending each change on
// changes. Poll errors are logged and the loop continues.
func (w *Watcher) Run(ctx context.Context, changes chan<- Change) error {
	if _, err := w.Poll(); err != nil {
		w.logger.Warn("initial sync poll failed", "error", err)
	}

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		found, err := w.Poll()
		if err != nil {
			w.logger.Warn("sync poll failed", "error", err)
			continue
		}
		for _, change := range found {
			select {
			case changes <- change:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
