package format

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pdxmph/tasks-tui/internal/task"
)

// TaskwarriorTag marks every exported task so a later import can be found
// with `task +tasks-tui list`
const TaskwarriorTag = "tasks-tui"

// taskwarriorTime is the compact UTC layout of `task export`
const taskwarriorTime = "20060102T150405Z"

// namespace seeds the per-task uuids so re-exporting the same task yields
// the same uuid and `task import` updates it in place
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/pdxmph/tasks-tui"))

// taskwarriorTask is one entry of the `task import` array
type taskwarriorTask struct {
	UUID        string   `json:"uuid"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Entry       string   `json:"entry"`
	Modified    string   `json:"modified"`
	End         string   `json:"end,omitempty"`
}

// Taskwarrior writes the JSON accepted by `task import`
type Taskwarrior struct{}

func (Taskwarrior) Name() string { return "taskwarrior" }

func (Taskwarrior) Description() string { return "input for `task import`" }

// Extensions is empty: Taskwarrior files are plain .json, so this format
// has to be asked for by name
func (Taskwarrior) Extensions() []string { return nil }

func (Taskwarrior) Encode(tasks []task.Task, _ time.Time) ([]byte, error) {
	out := make([]taskwarriorTask, 0, len(tasks))
	for _, t := range tasks {
		entry := taskwarriorTask{
			UUID:        TaskUUID(t.ID).String(),
			Description: t.Text,
			Status:      "pending",
			Tags:        []string{TaskwarriorTag},
			Entry:       t.CreatedAt.UTC().Format(taskwarriorTime),
			Modified:    t.UpdatedAt.UTC().Format(taskwarriorTime),
		}
		if t.Completed {
			entry.Status = "completed"
			entry.End = entry.Modified
		}
		out = append(out, entry)
	}
	return json.MarshalIndent(out, "", "  ")
}

// TaskUUID derives the stable Taskwarrior uuid for a task id
func TaskUUID(id int64) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(strconv.FormatInt(id, 10)))
}

func init() {
	Register("taskwarrior", func() Format { return Taskwarrior{} })
}
