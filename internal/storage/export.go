package storage

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/validate"
)

// Export is the document written by the export command
type Export struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exportedAt"`
	Tasks      []task.Task `json:"tasks"`
}

// Export encodes tasks as an indented export document
func (g *Gateway) Export(tasks []task.Task) ([]byte, error) {
	return EncodeExport(tasks, g.clock.Now())
}

// EncodeExport builds the export document for tasks stamped with exportedAt
func EncodeExport(tasks []task.Task, exportedAt time.Time) ([]byte, error) {
	document := Export{
		Version:    SchemaVersion,
		ExportedAt: task.Timestamp(exportedAt),
		Tasks:      tasks,
	}
	if document.Tasks == nil {
		document.Tasks = []task.Task{}
	}
	return json.MarshalIndent(document, "", "  ")
}

// Import decodes an export document or a bare task array. Comments and
// trailing commas are tolerated. Task text is sanitized and entries left
// empty are dropped.
func (g *Gateway) Import(data []byte) ([]task.Task, error) {
	cleaned := bytes.TrimSpace(jsonc.ToJSON(data))

	if len(cleaned) > 0 && cleaned[0] == '{' {
		var document struct {
			Tasks json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal(cleaned, &document); err != nil {
			return nil, &DecodeError{Key: KeyTasks, Err: err}
		}
		cleaned = document.Tasks
	}

	decoded, err := DecodeTasks(cleaned, task.Timestamp(g.clock.Now()))
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0, len(decoded))
	for _, t := range decoded {
		t.Text = validate.Sanitize(t.Text)
		if t.Text == "" {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
