package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the model for display in place of
// the help line
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg restores the help line. Seq matches the record it fades
// so that an older fade does not clear a newer record.
type logRecordFadeMsg struct {
	Seq int
}

// logRecordFadeDelay is how long a log record stays visible
const logRecordFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that routes records into a bubbletea
// program as messages. Records arriving before SetProgram are dropped.
// Handlers derived through WithAttrs and WithGroup share the program.
type LogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler creates a handler delivering records at or above level
func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program that receives records. Safe to call from
// any goroutine.
func (h *LogHandler) SetProgram(program *tea.Program) {
	h.program.Store(program)
}

// Enabled reports whether records at level are delivered
func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats the record as one line and sends it to the program
func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := h.program.Load()
	if program == nil {
		return nil
	}
	program.Send(h.format(record))
	return nil
}

// format builds "message (key=value, ...)" with handler attrs first
func (h *LogHandler) format(record slog.Record) logRecordMsg {
	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}

	var parts []string
	for _, attr := range h.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	return logRecordMsg{Summary: summary, Level: record.Level}
}

// WithAttrs returns a handler with attrs appended
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{
		level:   h.level,
		program: h.program,
		attrs:   append(slices.Clone(h.attrs), attrs...),
		groups:  slices.Clone(h.groups),
	}
}

// WithGroup returns a handler with name appended to the group path
func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LogHandler{
		level:   h.level,
		program: h.program,
		attrs:   slices.Clone(h.attrs),
		groups:  append(slices.Clone(h.groups), name),
	}
}
