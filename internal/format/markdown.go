package format

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pdxmph/tasks-tui/internal/task"
)

// Markdown renders a GitHub-style checklist
type Markdown struct{}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`~`, `\~`,
)

func (Markdown) Name() string { return "markdown" }

func (Markdown) Description() string { return "checklist for notes and issues" }

func (Markdown) Extensions() []string { return []string{".md", ".markdown"} }

func (Markdown) Encode(tasks []task.Task, exportedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Tasks\n\n_Exported %s_\n\n", exportedAt.UTC().Format(time.DateOnly))

	if len(tasks) == 0 {
		buf.WriteString("Nothing to do.\n")
		return buf.Bytes(), nil
	}

	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&buf, "- [%s] %s\n", mark, markdownEscaper.Replace(t.Text))
	}
	return buf.Bytes(), nil
}

func init() {
	Register("markdown", func() Format { return Markdown{} })
}
