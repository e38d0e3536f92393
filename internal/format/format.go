// Package format encodes the task list for other tools. Formats register
// themselves by name; the export command picks one by flag or by the
// extension of the file it writes.
package format

import (
	"time"

	"github.com/pdxmph/tasks-tui/internal/task"
)

// Format encodes a task list into a file another tool can read
type Format interface {
	// Name returns the format identifier used on the command line
	Name() string

	// Description is shown in the export usage text
	Description() string

	// Extensions lists the file extensions, with leading dot, that select
	// this format when no name is given
	Extensions() []string

	// Encode renders tasks as of exportedAt
	Encode(tasks []task.Task, exportedAt time.Time) ([]byte, error)
}

// Factory creates a new instance of a Format
type Factory func() Format
