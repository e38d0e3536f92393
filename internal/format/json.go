package format

import (
	"time"

	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// JSON is the native export document, readable by the import command
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Description() string { return "export document, re-importable" }

func (JSON) Extensions() []string { return []string{".json"} }

func (JSON) Encode(tasks []task.Task, exportedAt time.Time) ([]byte, error) {
	return storage.EncodeExport(tasks, exportedAt)
}

func init() {
	Register("json", func() Format { return JSON{} })
}
