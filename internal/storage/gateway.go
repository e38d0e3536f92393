// Package storage adapts the task store to a key-value byte store. Every
// decode path is total: corrupt, tampered or legacy persisted bytes degrade
// to an empty task list or default settings and are never returned as
// errors to the caller.
package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// Key names a persisted record
type Key string

const (
	KeyTasks    Key = "tasks"
	KeyMeta     Key = "tasks_meta"
	KeySettings Key = "settings"

	probeKey = "__storage_test__"
)

// SchemaVersion is written into every metadata record
const SchemaVersion = "1.0.0"

// KV is a key-value byte store
type KV interface {
	// Get returns the value for key or ErrKeyNotFound
	Get(key string) ([]byte, error)

	// Set stores value under key
	Set(key string, value []byte) error

	// Delete removes key
	Delete(key string) error
}

// Meta is the diagnostic record written beside every task write
type Meta struct {
	Version      string    `json:"version"`
	LastModified time.Time `json:"lastModified"`
	TaskCount    int       `json:"taskCount"`
}

// Gateway reads and writes tasks and settings through a KV
type Gateway struct {
	kv     KV
	clock  clock.Clock
	logger *slog.Logger
}

// Option configures a Gateway
type Option func(*Gateway)

// WithClock sets the time source used for metadata and field defaults
func WithClock(c clock.Clock) Option {
	return func(g *Gateway) {
		g.clock = c
	}
}

// WithLogger sets the logger for write and decode failures
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway over kv
func NewGateway(kv KV, opts ...Option) *Gateway {
	g := &Gateway{
		kv:     kv,
		clock:  clock.Real(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsAvailable probes the store with a throwaway write and delete
func (g *Gateway) IsAvailable() bool {
	if err := g.kv.Set(probeKey, []byte("test")); err != nil {
		g.logger.Warn("storage probe write failed", "error", err)
		return false
	}
	if err := g.kv.Delete(probeKey); err != nil {
		g.logger.Warn("storage probe delete failed", "error", err)
		return false
	}
	return true
}

// WriteTasks persists the structurally valid tasks and a metadata record.
// The returned error, if any, is an *Error.
func (g *Gateway) WriteTasks(tasks []task.Task) error {
	valid := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if wellFormed(t) {
			valid = append(valid, t)
		}
	}
	if dropped := len(tasks) - len(valid); dropped > 0 {
		g.logger.Warn("dropping malformed tasks before write", "count", dropped)
	}

	data, err := json.Marshal(valid)
	if err != nil {
		return g.fail(&Error{Kind: Serialization, Key: KeyTasks, Err: err})
	}
	if err := g.kv.Set(string(KeyTasks), data); err != nil {
		return g.fail(&Error{Kind: classify(err), Key: KeyTasks, Err: err})
	}

	meta := Meta{
		Version:      SchemaVersion,
		LastModified: task.Timestamp(g.clock.Now()),
		TaskCount:    len(valid),
	}
	metaData, err := json.Marshal(meta)
	if err != nil {
		return g.fail(&Error{Kind: Serialization, Key: KeyMeta, Err: err})
	}
	if err := g.kv.Set(string(KeyMeta), metaData); err != nil {
		return g.fail(&Error{Kind: classify(err), Key: KeyMeta, Err: err})
	}
	return nil
}

// ReadTasks loads the persisted task list. A missing key, unreadable store
// or undecodable value all yield an empty list.
func (g *Gateway) ReadTasks() []task.Task {
	data, err := g.kv.Get(string(KeyTasks))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			g.logger.Error("reading tasks", "error", err)
		}
		return []task.Task{}
	}

	tasks, err := DecodeTasks(data, task.Timestamp(g.clock.Now()))
	if err != nil {
		g.logger.Error("discarding persisted tasks", "error", err)
		return []task.Task{}
	}
	return tasks
}

// ReadMeta returns the last metadata record, for diagnostics only
func (g *Gateway) ReadMeta() (Meta, bool) {
	data, err := g.kv.Get(string(KeyMeta))
	if err != nil {
		return Meta{}, false
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, false
	}
	return meta, true
}

// WriteSettings persists s. The returned error, if any, is an *Error.
func (g *Gateway) WriteSettings(s settings.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return g.fail(&Error{Kind: Serialization, Key: KeySettings, Err: err})
	}
	if err := g.kv.Set(string(KeySettings), data); err != nil {
		return g.fail(&Error{Kind: classify(err), Key: KeySettings, Err: err})
	}
	return nil
}

// ReadSettings loads settings merged field by field over the defaults
func (g *Gateway) ReadSettings() settings.Settings {
	data, err := g.kv.Get(string(KeySettings))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			g.logger.Error("reading settings", "error", err)
		}
		return settings.Default()
	}

	merged, err := DecodeSettings(data)
	if err != nil {
		g.logger.Error("discarding persisted settings", "error", err)
	}
	return merged
}

func (g *Gateway) fail(err *Error) error {
	g.logger.Error("storage write failed", "key", string(err.Key), "kind", string(err.Kind), "error", err.Err)
	return err
}

// wellFormed reports whether t has every field a persisted task needs
func wellFormed(t task.Task) bool {
	return t.ID != 0 && strings.TrimSpace(t.Text) != "" && !t.CreatedAt.IsZero()
}
