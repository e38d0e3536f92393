// Package cli implements the non-interactive subcommands. Each command runs
// one store operation against the shared database and exits, so a running
// TUI picks the write up as an external change.
package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/validate"
)

// Inspector exposes database internals to the info command
type Inspector interface {
	Path() string
	WriterID() string
	Entries() ([]db.Entry, error)
}

// Env is what every command runs against
type Env struct {
	Store   *task.Store
	Gateway *storage.Gateway

	// Inspector is nil when running on an in-memory store
	Inspector Inspector

	Stdin  io.Reader
	Stdout io.Writer

	// Styled enables colors and glyphs in list output
	Styled bool

	// Clock stamps exports; nil means the real clock
	Clock clock.Clock
}

func (env Env) now() time.Time {
	if env.Clock == nil {
		return clock.Real().Now()
	}
	return env.Clock.Now()
}

// UsageError is a malformed command line
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// ExitCode distinguishes usage errors from failures
func (e *UsageError) ExitCode() int {
	return 2
}

func usage(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	args    string
	summary string
	run     func(env Env, args []string) error
}

var commands = []command{
	{"add", "TEXT", "add a task", runAdd},
	{"list", "[--filter all|active|completed]", "list tasks", runList},
	{"done", "ID", "toggle a task's completion", runDone},
	{"edit", "ID TEXT", "replace a task's text", runEdit},
	{"rm", "ID", "delete a task", runRemove},
	{"clear", "", "delete all completed tasks", runClear},
	{"toggle-all", "", "complete every task, or reopen all if all are done", runToggleAll},
	{"export", "[--format f] [FILE]", "write tasks to FILE or stdout (json, markdown, taskwarrior)", runExport},
	{"import", "FILE", "add tasks from an export or a JSON array ('-' reads stdin)", runImport},
	{"info", "", "show storage diagnostics", runInfo},
}

// IsCommand reports whether name is a subcommand
func IsCommand(name string) bool {
	return slices.ContainsFunc(commands, func(c command) bool { return c.name == name })
}

// Run dispatches args[0] to its command
func Run(env Env, args []string) error {
	if len(args) == 0 {
		return usage("no command given")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(env, args[1:])
		}
	}
	return usage("unknown command %q", args[0])
}

// PrintUsage writes the command list
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-36s %s\n", strings.TrimSpace(c.name+" "+c.args), c.summary)
	}
}

// resolveID finds a task by full id or by a unique id prefix
func resolveID(store *task.Store, arg string) (task.Task, error) {
	if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
		return task.Task{}, usage("invalid task id %q", arg)
	}

	var matches []task.Task
	for _, t := range store.Tasks() {
		id := strconv.FormatInt(t.ID, 10)
		if id == arg {
			return t, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("%w: %s", task.ErrNotFound, arg)
	case 1:
		return matches[0], nil
	}
	return task.Task{}, fmt.Errorf("task id %s is ambiguous (%d matches)", arg, len(matches))
}

// mutationError turns a failed store call into a command error. A storage
// failure is an error here because the process exits with only the
// in-memory copy.
func mutationError(result task.Result, err error) error {
	var invalid *validate.Error
	if errors.As(err, &invalid) {
		messages := make([]string, len(invalid.Violations))
		for i, v := range invalid.Violations {
			messages[i] = v.Message
		}
		return fmt.Errorf("invalid task text: %s", strings.Join(messages, "; "))
	}
	if err != nil {
		return err
	}
	if result.StorageErr != nil {
		return fmt.Errorf("change not saved: %w", result.StorageErr)
	}
	return nil
}

// listStyles renders list output; zero styles print plain text
type listStyles struct {
	done  lipgloss.Style
	open  lipgloss.Style
	muted lipgloss.Style
	check string
	box   string
}

func newListStyles(w io.Writer, styled bool) listStyles {
	if !styled {
		return listStyles{check: "[x]", box: "[ ]"}
	}
	renderer := lipgloss.NewRenderer(w)
	return listStyles{
		done:  renderer.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("242")),
		open:  renderer.NewStyle(),
		muted: renderer.NewStyle().Foreground(lipgloss.Color("241")),
		check: renderer.NewStyle().Foreground(lipgloss.Color("78")).Render("✓"),
		box:   "·",
	}
}

func parseFilter(value string) (settings.Filter, error) {
	filter, ok := settings.ParseFilter(value)
	if !ok {
		return "", usage("unknown filter %q (want all, active or completed)", value)
	}
	return filter, nil
}
