package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the logger used outside the TUI. A terminal gets the
// text handler; piped or redirected stderr gets JSON records.
func NewLogger(level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if IsTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
