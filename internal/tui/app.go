package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/storage"
	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/validate"
	"github.com/pdxmph/tasks-tui/internal/view"
	"github.com/pdxmph/tasks-tui/internal/watch"
)

type mode int

const (
	modeNormal mode = iota
	modeAdd
	modeEdit
	modeConfirmClear
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// externalChangeMsg carries a write made by another process
type externalChangeMsg struct {
	change watch.Change
}

// Options holds everything the model drives
type Options struct {
	Store      *task.Store
	Gateway    *storage.Gateway
	Controller watch.Listener
	Settings   settings.Settings

	// Changes delivers writes detected by a watcher; nil disables sync
	Changes <-chan watch.Change

	// PersistenceDisabled marks a session running on an in-memory store
	PersistenceDisabled bool
}

// Model represents the main application state
type Model struct {
	store      *task.Store
	gateway    *storage.Gateway
	controller watch.Listener
	changes    <-chan watch.Change
	settings   settings.Settings
	keys       KeyMap
	styles     styles

	mode     mode
	input    textinput.Model
	editID   int64
	selected int
	width    int
	height   int

	status     string
	statusKind statusKind
	unsaved    bool
	ephemeral  bool

	logRecord *logRecordMsg
	logSeq    int
}

// New creates a new application model
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.Prompt = "> "
	ti.CharLimit = validate.MaxLength * 2
	ti.Width = 50

	m := Model{
		store:      opts.Store,
		gateway:    opts.Gateway,
		controller: opts.Controller,
		changes:    opts.Changes,
		settings:   opts.Settings,
		keys:       DefaultKeyMap,
		styles:     newStyles(opts.Settings.Theme),
		input:      ti,
		ephemeral:  opts.PersistenceDisabled,
	}
	if m.ephemeral {
		m.setStatus("Storage unavailable: changes will not be saved", statusWarning)
	}
	return m
}

// Init starts listening for external changes
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// waitForChange delivers the next watcher change as a message
func waitForChange(changes <-chan watch.Change) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return externalChangeMsg{change: change}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.input.Width = max(m.width-8, 10)
		}
		return m, nil

	case externalChangeMsg:
		m.onExternalChange(msg.change.Key)
		return m, waitForChange(m.changes)

	case logRecordMsg:
		m.logSeq++
		record := msg
		m.logRecord = &record
		seq := m.logSeq
		return m, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{Seq: seq}
		})

	case logRecordFadeMsg:
		if msg.Seq == m.logSeq {
			m.logRecord = nil
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateInput(msg)
		case modeConfirmClear:
			return m.updateConfirm(msg)
		}
		return m.updateNormal(msg)
	}

	if m.mode == modeAdd || m.mode == modeEdit {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.projection().Tasks

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(visible)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Top):
		m.selected = 0

	case key.Matches(msg, m.keys.End):
		m.selected = max(len(visible)-1, 0)

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Reset()
		m.input.Placeholder = "What needs to be done?"
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.current(); ok {
			m.mode = modeEdit
			m.editID = t.ID
			m.input.SetValue(t.Text)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}

	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.current(); ok {
			result, err := m.store.ToggleCompletion(t.ID)
			message := "Task reopened"
			if result.Task.Completed {
				message = "Task completed"
			}
			m.apply(result, err, message)
		}

	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.current(); ok {
			result, err := m.store.Delete(t.ID)
			m.apply(result, err, "Task deleted")
		}

	case key.Matches(msg, m.keys.ToggleAll):
		result, err := m.store.ToggleAll()
		m.apply(result, err, fmt.Sprintf("Updated %s", plural(result.Changed, "task")))

	case key.Matches(msg, m.keys.ClearCompleted):
		if m.projection().Counts.HasCompleted {
			m.mode = modeConfirmClear
		} else {
			m.setStatus("No completed tasks to clear", statusInfo)
		}

	case key.Matches(msg, m.keys.Undo):
		result, err := m.store.Undo()
		m.apply(result, err, "Undone")

	case key.Matches(msg, m.keys.NextFilter):
		m.setFilter(m.settings.Filter.Next())

	case key.Matches(msg, m.keys.FilterAll):
		m.setFilter(settings.FilterAll)

	case key.Matches(msg, m.keys.FilterActive):
		m.setFilter(settings.FilterActive)

	case key.Matches(msg, m.keys.FilterCompleted):
		m.setFilter(settings.FilterCompleted)

	case key.Matches(msg, m.keys.Theme):
		m.settings.Theme = m.settings.Theme.Toggle()
		m.styles = newStyles(m.settings.Theme)
		m.saveSettings()
	}

	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		var (
			result task.Result
			err    error
		)
		if m.mode == modeAdd {
			result, err = m.store.Create(m.input.Value())
		} else {
			result, err = m.store.Edit(m.editID, m.input.Value())
		}

		var invalid *validate.Error
		switch {
		case errors.As(err, &invalid):
			m.setStatus(invalid.Violations[0].Message, statusError)
			return m, nil
		case errors.Is(err, task.ErrNotFound):
			m.leaveInput()
			m.setStatus("That task was removed in another session", statusWarning)
			return m, nil
		}

		adding := m.mode == modeAdd
		m.leaveInput()
		if adding {
			m.apply(result, err, "Task added")
			m.selectID(result.Task.ID)
		} else {
			m.apply(result, err, "Task updated")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal
	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	result, err := m.store.ClearCompleted()
	m.apply(result, err, fmt.Sprintf("Cleared %s", plural(result.Removed, "completed task")))
	return m, nil
}

// apply reports the outcome of a store mutation in the status line
func (m *Model) apply(result task.Result, err error, success string) {
	switch {
	case errors.Is(err, task.ErrNothingToUndo):
		m.setStatus("Nothing to undo", statusInfo)
		return
	case errors.Is(err, task.ErrNotFound):
		return
	case err != nil:
		m.setStatus(err.Error(), statusError)
		return
	}

	m.clampSelection()
	if result.StorageErr != nil {
		m.unsaved = true
		m.setStatus(storageMessage(result.StorageErr), statusError)
		return
	}
	m.unsaved = false
	m.setStatus(success, statusSuccess)
}

// onExternalChange reloads state written by another process
func (m *Model) onExternalChange(key storage.Key) {
	if m.controller == nil {
		return
	}
	reload := m.controller.OnExternalChange(key)

	if reload.SettingsReloaded {
		m.settings = reload.Settings
		m.styles = newStyles(m.settings.Theme)
		m.clampSelection()
	}

	if reload.TasksChanged {
		m.unsaved = false
		if m.mode == modeEdit {
			if _, ok := m.store.Get(m.editID); !ok {
				m.leaveInput()
			}
		}
		if m.mode == modeConfirmClear && !m.projection().Counts.HasCompleted {
			m.mode = modeNormal
		}
		m.clampSelection()
		m.setStatus("Tasks updated in another session", statusInfo)
	}
}

func (m *Model) setFilter(filter settings.Filter) {
	if m.settings.Filter == filter {
		return
	}
	m.settings.Filter = filter
	m.selected = 0
	m.saveSettings()
}

func (m *Model) saveSettings() {
	if err := m.gateway.WriteSettings(m.settings); err != nil {
		m.setStatus("Settings not saved: "+storageMessage(err), statusWarning)
	}
}

func (m *Model) leaveInput() {
	m.mode = modeNormal
	m.editID = 0
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) setStatus(text string, kind statusKind) {
	m.status = text
	m.statusKind = kind
}

func (m Model) projection() view.Projection {
	return view.Project(m.store.Tasks(), m.settings.Filter)
}

// current returns the selected visible task
func (m Model) current() (task.Task, bool) {
	visible := m.projection().Tasks
	if m.selected < 0 || m.selected >= len(visible) {
		return task.Task{}, false
	}
	return visible[m.selected], true
}

func (m *Model) selectID(id int64) {
	for i, t := range m.projection().Tasks {
		if t.ID == id {
			m.selected = i
			return
		}
	}
}

// clampSelection keeps the selection within the visible list
func (m *Model) clampSelection() {
	count := len(m.projection().Tasks)
	switch {
	case count == 0:
		m.selected = 0
	case m.selected >= count:
		m.selected = count - 1
	case m.selected < 0:
		m.selected = 0
	}
}

// existingTexts returns the texts an input must not duplicate
func (m Model) existingTexts() []string {
	var texts []string
	for _, t := range m.store.Tasks() {
		if m.mode == modeEdit && t.ID == m.editID {
			continue
		}
		texts = append(texts, t.Text)
	}
	return texts
}

func storageMessage(err error) string {
	var storageErr *storage.Error
	if errors.As(err, &storageErr) {
		switch storageErr.Kind {
		case storage.QuotaExceeded:
			return "Storage is full. Delete some tasks; this change is only kept in memory"
		case storage.Serialization:
			return "Could not encode tasks; this change is only kept in memory"
		}
	}
	return "Storage unavailable; this change is only kept in memory"
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// statusLevel maps a log level onto a status style
func statusLevel(level slog.Level) statusKind {
	switch {
	case level >= slog.LevelError:
		return statusError
	case level >= slog.LevelWarn:
		return statusWarning
	}
	return statusInfo
}
