package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
)

// newEnv opens a fresh store over kv, the way main does for each command
func newEnv(t *testing.T, kv storage.KV, stdin string) (Env, *bytes.Buffer) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := storage.NewGateway(kv, storage.WithClock(fake), storage.WithLogger(logger))
	stdout := &bytes.Buffer{}
	return Env{
		Store:   task.NewStore(gateway.ReadTasks(), gateway, task.WithClock(fake)),
		Gateway: gateway,
		Stdin:   strings.NewReader(stdin),
		Stdout:  stdout,
		Clock:   fake,
	}, stdout
}

func run(t *testing.T, kv storage.KV, args ...string) string {
	t.Helper()
	env, stdout := newEnv(t, kv, "")
	if err := Run(env, args); err != nil {
		t.Fatalf("Run(%v): %v", args, err)
	}
	return stdout.String()
}

func firstID(t *testing.T, kv storage.KV) int64 {
	t.Helper()
	env, _ := newEnv(t, kv, "")
	tasks := env.Store.Tasks()
	if len(tasks) == 0 {
		t.Fatal("no tasks stored")
	}
	return tasks[0].ID
}

func TestAddAndList(t *testing.T) {
	kv := storage.NewMemoryKV(0)

	out := run(t, kv, "add", "Buy", "milk")
	if !strings.Contains(out, "Added") || !strings.Contains(out, "Buy milk") {
		t.Errorf("add output = %q", out)
	}

	out = run(t, kv, "list")
	if !strings.Contains(out, "[ ] Buy milk") {
		t.Errorf("list output = %q", out)
	}
	if !strings.Contains(out, "1 item left") {
		t.Errorf("list footer missing: %q", out)
	}
}

func TestListEmpty(t *testing.T) {
	out := run(t, storage.NewMemoryKV(0), "list")
	if !strings.Contains(out, "No tasks yet") {
		t.Errorf("empty list output = %q", out)
	}
}

func TestListStripsControlSequences(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	seeded := `[{"id":1,"text":"evil \u001b]0;pwned\u0007 \u001b[2J done","completed":false,` +
		`"createdAt":"2026-03-01T09:00:00.000Z","updatedAt":"2026-03-01T09:00:00.000Z"}]`
	if err := kv.Set(string(storage.KeyTasks), []byte(seeded)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	for _, args := range [][]string{{"list"}, {"done", "1"}, {"rm", "1"}} {
		out := run(t, kv, args...)
		if strings.ContainsAny(out, "\x1b\x07") {
			t.Errorf("%v wrote control bytes: %q", args, out)
		}
		if !strings.Contains(out, "evil") {
			t.Errorf("%v lost the task text: %q", args, out)
		}
	}
}

func TestAddInvalid(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	env, _ := newEnv(t, kv, "")

	err := Run(env, []string{"add", "<script>"})
	if err == nil || !strings.Contains(err.Error(), "invalid task text") {
		t.Errorf("expected validation error, got %v", err)
	}

	var usageErr *UsageError
	if err := Run(env, []string{"add"}); !errors.As(err, &usageErr) {
		t.Errorf("missing text should be a usage error, got %v", err)
	}
}

func TestDoneAndFilter(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "first")
	run(t, kv, "add", "second")

	out := run(t, kv, "done", strconv.FormatInt(firstID(t, kv), 10))
	if !strings.Contains(out, "Completed") {
		t.Errorf("done output = %q", out)
	}

	out = run(t, kv, "list", "--filter", "completed")
	if !strings.Contains(out, "second") || strings.Contains(out, "first") {
		t.Errorf("completed filter output = %q", out)
	}

	out = run(t, kv, "list", "-f", "active")
	if strings.Contains(out, "second") || !strings.Contains(out, "first") {
		t.Errorf("active filter output = %q", out)
	}
}

func TestListUsesSavedFilter(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "open item")

	env, _ := newEnv(t, kv, "")
	saved := settings.Default()
	saved.Filter = settings.FilterCompleted
	if err := env.Gateway.WriteSettings(saved); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}

	if out := run(t, kv, "list"); !strings.Contains(out, "No completed tasks yet") {
		t.Errorf("list should use the saved filter, got %q", out)
	}

	env, _ = newEnv(t, kv, "")
	var usageErr *UsageError
	if err := Run(env, []string{"list", "--filter", "someday"}); !errors.As(err, &usageErr) {
		t.Errorf("bad filter should be a usage error, got %v", err)
	}
}

func TestEditRemoveClear(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "draft")
	id := strconv.FormatInt(firstID(t, kv), 10)

	if out := run(t, kv, "edit", id, "final", "copy"); !strings.Contains(out, "final copy") {
		t.Errorf("edit output = %q", out)
	}
	run(t, kv, "done", id)
	if out := run(t, kv, "clear"); !strings.Contains(out, "Cleared 1 completed task") {
		t.Errorf("clear output = %q", out)
	}

	run(t, kv, "add", "doomed")
	id = strconv.FormatInt(firstID(t, kv), 10)
	run(t, kv, "rm", id)
	if out := run(t, kv, "list"); !strings.Contains(out, "No tasks yet") {
		t.Errorf("rm left tasks behind: %q", out)
	}
}

func TestToggleAll(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "one")
	run(t, kv, "add", "two")

	if out := run(t, kv, "toggle-all"); !strings.Contains(out, "Updated 2 tasks") {
		t.Errorf("toggle-all output = %q", out)
	}
	if out := run(t, kv, "list", "--filter", "active"); !strings.Contains(out, "No active tasks") {
		t.Errorf("all tasks should be completed, got %q", out)
	}
}

func TestIDErrors(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "only")
	env, _ := newEnv(t, kv, "")

	var usageErr *UsageError
	if err := Run(env, []string{"done", "abc"}); !errors.As(err, &usageErr) {
		t.Errorf("non-numeric id should be a usage error, got %v", err)
	}
	if err := Run(env, []string{"rm", "42"}); !errors.Is(err, task.ErrNotFound) {
		t.Errorf("unknown id should be ErrNotFound, got %v", err)
	}
}

func TestIDPrefix(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "lonely")
	id := strconv.FormatInt(firstID(t, kv), 10)

	if out := run(t, kv, "done", id[:10]); !strings.Contains(out, "Completed") {
		t.Errorf("unique prefix should resolve, got %q", out)
	}

	// ids created in the same millisecond share their leading digits
	run(t, kv, "add", "crowd")
	env, _ := newEnv(t, kv, "")
	err := Run(env, []string{"rm", id[:13]})
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous id error, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	env, _ := newEnv(t, storage.NewMemoryKV(0), "")
	err := Run(env, []string{"frobnicate"})

	var usageErr *UsageError
	if !errors.As(err, &usageErr) || usageErr.ExitCode() != 2 {
		t.Errorf("expected usage error, got %v", err)
	}
	if !IsCommand("list") || IsCommand("frobnicate") {
		t.Error("IsCommand misreports")
	}

	var buf bytes.Buffer
	PrintUsage(&buf)
	if !strings.Contains(buf.String(), "import FILE") {
		t.Errorf("usage text = %q", buf.String())
	}
}

func TestStorageFailure(t *testing.T) {
	env, _ := newEnv(t, storage.NewMemoryKV(16), "")
	err := Run(env, []string{"add", "more than sixteen bytes of task"})

	var storageErr *storage.Error
	if !errors.As(err, &storageErr) || storageErr.Kind != storage.QuotaExceeded {
		t.Errorf("expected quota error, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	source := storage.NewMemoryKV(0)
	run(t, source, "add", "alpha")
	run(t, source, "add", "beta")

	path := filepath.Join(t.TempDir(), "export.json")
	if out := run(t, source, "export", path); !strings.Contains(out, "Exported 2 tasks") {
		t.Errorf("export output = %q", out)
	}

	target := storage.NewMemoryKV(0)
	run(t, target, "add", "alpha")
	out := run(t, target, "import", path)
	if !strings.Contains(out, "Imported 1 task (1 skipped)") {
		t.Errorf("import output = %q", out)
	}

	stdout := run(t, source, "export")
	if !strings.Contains(stdout, `"tasks"`) {
		t.Errorf("export to stdout = %q", stdout)
	}
}

func TestExportFormats(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "write report")

	path := filepath.Join(t.TempDir(), "todo.md")
	if out := run(t, kv, "export", path); !strings.Contains(out, "(markdown)") {
		t.Errorf("export by extension output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "- [ ] write report") {
		t.Errorf("markdown export = %q", data)
	}

	if out := run(t, kv, "export", "--format", "taskwarrior"); !strings.Contains(out, `"status": "pending"`) {
		t.Errorf("taskwarrior export = %q", out)
	}

	env, _ := newEnv(t, kv, "")
	var usageErr *UsageError
	if err := Run(env, []string{"export", "--format", "csv"}); !errors.As(err, &usageErr) {
		t.Errorf("unknown format should be a usage error, got %v", err)
	}
}

func TestImportStdin(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	env, stdout := newEnv(t, kv, `[
		// from a hand-written file
		{"text": "water   plants"},
		{"text": "call mom",},
	]`)
	if err := Run(env, []string{"import", "-"}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(stdout.String(), "Imported 2 tasks") {
		t.Errorf("import output = %q", stdout.String())
	}
	if out := run(t, kv, "list"); !strings.Contains(out, "water plants") {
		t.Errorf("imported text not normalized: %q", out)
	}
}

func TestInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	database, err := db.Open(path, db.Options{Create: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	run(t, database, "add", "persisted")

	env, stdout := newEnv(t, database, "")
	env.Inspector = database
	if err := Run(env, []string{"info"}); err != nil {
		t.Fatalf("info: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{path, "available: true", "schema:    1.0.0", "tasks:     1", "tasks_meta", "this process"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestInfoInMemory(t *testing.T) {
	out := run(t, storage.NewMemoryKV(0), "info")
	if !strings.Contains(out, "in-memory") || !strings.Contains(out, "never written") {
		t.Errorf("info output = %q", out)
	}
}

func TestStyledList(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	run(t, kv, "add", "styled")
	run(t, kv, "done", strconv.FormatInt(firstID(t, kv), 10))

	env, stdout := newEnv(t, kv, "")
	env.Styled = true
	if err := Run(env, []string{"list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout.String(), "✓") {
		t.Errorf("styled list should use glyphs: %q", stdout.String())
	}
}

func TestIsTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}
