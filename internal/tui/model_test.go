package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/tasks-tui/internal/clock"
	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/watch"
)

// session is one process's view of a shared store
type session struct {
	kv      *storage.MemoryKV
	gateway *storage.Gateway
	store   *task.Store
	clock   *clock.FakeClock
}

func newSession(t *testing.T, kv *storage.MemoryKV) session {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := storage.NewGateway(kv, storage.WithClock(fake), storage.WithLogger(logger))
	store := task.NewStore(gateway.ReadTasks(), gateway, task.WithClock(fake))
	return session{kv: kv, gateway: gateway, store: store, clock: fake}
}

func newTestModel(t *testing.T, kv *storage.MemoryKV) (Model, session) {
	t.Helper()
	s := newSession(t, kv)
	model := New(Options{
		Store:      s.store,
		Gateway:    s.gateway,
		Controller: watch.NewController(s.store, s.gateway, slog.New(slog.NewTextHandler(io.Discard, nil))),
		Settings:   s.gateway.ReadSettings(),
	})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), s
}

func send(t *testing.T, model Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := model.Update(msg)
		model = updated.(Model)
	}
	return model
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEscape}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func addTask(t *testing.T, model Model, text string) Model {
	t.Helper()
	return send(t, model, runes("a"), runes(text), enter)
}

func TestAddTask(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))

	model = addTask(t, model, "Buy milk")

	if model.mode != modeNormal {
		t.Errorf("mode = %v, expected normal after submit", model.mode)
	}
	tasks := s.store.Tasks()
	if len(tasks) != 1 || tasks[0].Text != "Buy milk" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	if persisted := s.gateway.ReadTasks(); len(persisted) != 1 {
		t.Errorf("task not persisted, got %d", len(persisted))
	}
	if !strings.Contains(model.View(), "Buy milk") {
		t.Error("view should list the new task")
	}
	if !strings.Contains(model.View(), "1 item left") {
		t.Error("view should show the active counter")
	}
}

func TestAddInvalidStaysInInput(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))

	model = send(t, model, runes("a"), enter)
	if model.mode != modeAdd {
		t.Fatalf("empty submit should keep the input open, mode = %v", model.mode)
	}
	if model.statusKind != statusError || model.status == "" {
		t.Errorf("expected an error status, got %q", model.status)
	}
	if s.store.Len() != 0 {
		t.Error("invalid input must not create a task")
	}

	model = send(t, model, runes("<b>"), enter)
	if s.store.Len() != 0 || model.mode != modeAdd {
		t.Error("markup should be rejected")
	}

	model = send(t, model, esc)
	if model.mode != modeNormal || model.input.Value() != "" {
		t.Error("esc should close and clear the input")
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = addTask(t, model, "Buy milk")
	model = addTask(t, model, "buy MILK")

	if s.store.Len() != 1 {
		t.Errorf("duplicate text created a task, len = %d", s.store.Len())
	}
	if model.mode != modeAdd {
		t.Error("duplicate should keep the input open")
	}
}

func TestToggleAndFilter(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = addTask(t, model, "first")
	model = addTask(t, model, "second")

	// newest first, and the new task is selected
	if got, _ := model.current(); got.Text != "second" {
		t.Fatalf("selected %q, expected the newest task", got.Text)
	}
	model = send(t, model, space)
	if tk := s.store.Tasks()[0]; !tk.Completed {
		t.Fatal("space should complete the selected task")
	}

	model = send(t, model, runes("2"))
	if model.settings.Filter != settings.FilterActive {
		t.Fatalf("filter = %q", model.settings.Filter)
	}
	view := model.View()
	if strings.Contains(view, "second") || !strings.Contains(view, "first") {
		t.Errorf("active filter shows wrong tasks:\n%s", view)
	}
	if persisted := s.gateway.ReadSettings(); persisted.Filter != settings.FilterActive {
		t.Errorf("filter not persisted: %+v", persisted)
	}

	model = send(t, model, runes("f"))
	if model.settings.Filter != settings.FilterCompleted {
		t.Errorf("f should cycle to completed, got %q", model.settings.Filter)
	}
}

func TestEmptyStates(t *testing.T) {
	model, _ := newTestModel(t, storage.NewMemoryKV(0))
	if !strings.Contains(model.View(), "No tasks yet") {
		t.Errorf("empty store message missing:\n%s", model.View())
	}

	model = addTask(t, model, "open item")
	model = send(t, model, runes("3"))
	if !strings.Contains(model.View(), "No completed tasks yet") {
		t.Errorf("no-match message missing:\n%s", model.View())
	}
}

func TestEditTask(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = addTask(t, model, "Draft")

	model = send(t, model, runes("e"))
	if model.mode != modeEdit || model.input.Value() != "Draft" {
		t.Fatalf("edit should prefill the input, mode=%v value=%q", model.mode, model.input.Value())
	}
	model = send(t, model, runes(" v2"), enter)

	if tk := s.store.Tasks()[0]; tk.Text != "Draft v2" {
		t.Errorf("text = %q", tk.Text)
	}
	if model.status != "Task updated" {
		t.Errorf("status = %q", model.status)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = addTask(t, model, "keep me")

	model = send(t, model, runes("d"))
	if s.store.Len() != 0 {
		t.Fatal("d should delete the selected task")
	}

	model = send(t, model, runes("u"))
	if s.store.Len() != 1 {
		t.Fatal("u should restore the deleted task")
	}
	if len(s.gateway.ReadTasks()) != 1 {
		t.Error("undo should be persisted")
	}

	model = send(t, model, runes("u"), runes("u"))
	if model.status != "Nothing to undo" {
		t.Errorf("status = %q", model.status)
	}
}

func TestClearCompletedConfirm(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = addTask(t, model, "one")
	model = addTask(t, model, "two")
	model = send(t, model, runes("A"))

	model = send(t, model, runes("C"))
	if model.mode != modeConfirmClear {
		t.Fatalf("C should ask for confirmation, mode = %v", model.mode)
	}
	dialog := model.View()
	if !strings.Contains(dialog, "Clear 2 completed tasks?") {
		t.Errorf("confirmation prompt missing:\n%s", dialog)
	}
	if strings.Contains(dialog, "two") || strings.Contains(dialog, "items left") {
		t.Errorf("dialog should replace the list screen:\n%s", dialog)
	}

	model = send(t, model, runes("n"))
	if s.store.Len() != 2 || model.mode != modeNormal {
		t.Fatal("any other key should cancel")
	}

	model = send(t, model, runes("C"), runes("y"))
	if s.store.Len() != 0 {
		t.Errorf("y should clear completed tasks, %d left", s.store.Len())
	}
	if model.status != "Cleared 2 completed tasks" {
		t.Errorf("status = %q", model.status)
	}

	model = send(t, model, runes("C"))
	if model.mode != modeNormal {
		t.Error("nothing to clear should not prompt")
	}
}

func TestThemeToggle(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(0))
	model = send(t, model, runes("t"))

	if model.settings.Theme != settings.ThemeDark {
		t.Errorf("theme = %q", model.settings.Theme)
	}
	if s.gateway.ReadSettings().Theme != settings.ThemeDark {
		t.Error("theme not persisted")
	}
}

func TestStorageFailureKeepsChange(t *testing.T) {
	model, s := newTestModel(t, storage.NewMemoryKV(64))
	model = addTask(t, model, "This task text is long enough to exceed a tiny quota")

	if s.store.Len() != 1 {
		t.Fatal("the in-memory change should be kept")
	}
	if !model.unsaved {
		t.Error("unsaved flag should be set")
	}
	if !strings.Contains(model.status, "Storage is full") {
		t.Errorf("status = %q", model.status)
	}
	if !strings.Contains(model.View(), "[unsaved]") {
		t.Error("view should show the unsaved badge")
	}
}

func TestExternalChange(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	model, s := newTestModel(t, kv)
	model = addTask(t, model, "local")

	other := newSession(t, kv)
	if _, err := other.store.Create("from elsewhere"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dark := settings.Default()
	dark.Theme = settings.ThemeDark
	if err := other.gateway.WriteSettings(dark); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}

	model = send(t, model,
		externalChangeMsg{change: watch.Change{Key: storage.KeyTasks}},
		externalChangeMsg{change: watch.Change{Key: storage.KeySettings}},
	)

	if !task.EqualSlices(s.store.Tasks(), other.store.Tasks()) {
		t.Errorf("store not reloaded: %+v", s.store.Tasks())
	}
	if !strings.Contains(model.View(), "from elsewhere") {
		t.Error("view should show the reloaded task")
	}
	if model.settings.Theme != settings.ThemeDark {
		t.Error("settings should be reloaded")
	}
}

func TestExternalChangeCancelsStaleEdit(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	model, _ := newTestModel(t, kv)
	model = addTask(t, model, "soon gone")
	model = send(t, model, runes("e"))

	kv.Set(string(storage.KeyTasks), []byte(`[]`))
	model = send(t, model, externalChangeMsg{change: watch.Change{Key: storage.KeyTasks}})

	if model.mode != modeNormal {
		t.Errorf("editing a task removed elsewhere should close the input, mode = %v", model.mode)
	}
}

func TestControlSequencesStripped(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	kv.Set(string(storage.KeyTasks), []byte(`[{"id": 1, "text": "\u001b[2Jboom\u0007", "createdAt": "2026-03-01T09:00:00Z"}]`))
	model, _ := newTestModel(t, kv)

	view := model.View()
	if strings.Contains(view, "\x1b[2J") || strings.Contains(view, "\a") {
		t.Errorf("control sequences reached the view: %q", view)
	}
	if !strings.Contains(view, "boom") {
		t.Error("visible text should survive")
	}
}

func TestLogRecordReplacesHelp(t *testing.T) {
	model, _ := newTestModel(t, storage.NewMemoryKV(0))

	updated, cmd := model.Update(logRecordMsg{Summary: "sync poll failed", Level: slog.LevelWarn})
	model = updated.(Model)
	if cmd == nil {
		t.Error("a log record should schedule its fade")
	}
	if !strings.Contains(model.View(), "sync poll failed") {
		t.Error("log record should be visible")
	}

	model = send(t, model, logRecordMsg{Summary: "newer", Level: slog.LevelError})
	model = send(t, model, logRecordFadeMsg{Seq: 1})
	if !strings.Contains(model.View(), "newer") {
		t.Error("a stale fade must not clear a newer record")
	}
	model = send(t, model, logRecordFadeMsg{Seq: 2})
	if strings.Contains(model.View(), "newer") {
		t.Error("fade should restore the help line")
	}
}

func TestPersistenceDisabledBadge(t *testing.T) {
	s := newSession(t, storage.NewMemoryKV(0))
	model := New(Options{Store: s.store, Gateway: s.gateway, Settings: settings.Default(), PersistenceDisabled: true})
	model = send(t, model, tea.WindowSizeMsg{Width: 80, Height: 24})

	if !strings.Contains(model.View(), "[not persisted]") {
		t.Error("view should flag the in-memory session")
	}
}

func TestInitWaitsForChanges(t *testing.T) {
	s := newSession(t, storage.NewMemoryKV(0))
	changes := make(chan watch.Change, 1)
	model := New(Options{Store: s.store, Gateway: s.gateway, Settings: settings.Default(), Changes: changes})

	cmd := model.Init()
	if cmd == nil {
		t.Fatal("Init should wait for changes")
	}
	changes <- watch.Change{Key: storage.KeyTasks}
	msg, ok := cmd().(externalChangeMsg)
	if !ok || msg.change.Key != storage.KeyTasks {
		t.Errorf("unexpected message %#v", msg)
	}

	if New(Options{Store: s.store, Gateway: s.gateway}).Init() != nil {
		t.Error("without a change channel Init should return nil")
	}
}
