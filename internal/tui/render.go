package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/pdxmph/tasks-tui/internal/settings"
	"github.com/pdxmph/tasks-tui/internal/task"
	"github.com/pdxmph/tasks-tui/internal/validate"
	"github.com/pdxmph/tasks-tui/internal/view"
)

// chromeHeight is the number of lines around the task list
const chromeHeight = 9

// View renders the UI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	p := m.projection()
	if m.mode == modeConfirmClear {
		return m.renderConfirmClear(p)
	}

	sections := []string{
		m.renderHeader(p),
		m.renderTabs(),
		m.styles.border.Width(m.width - 2).Render(m.renderList(p, m.width-4, m.listHeight())),
	}
	if m.mode == modeAdd || m.mode == modeEdit {
		sections = append(sections, m.renderInput())
	}
	sections = append(sections, m.renderStatus(), m.renderHelp(p))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) listHeight() int {
	height := m.height - chromeHeight
	if m.mode == modeAdd || m.mode == modeEdit {
		height -= 2
	}
	return max(height, 1)
}

func (m Model) renderHeader(p view.Projection) string {
	title := m.styles.title.Render("Tasks")
	counts := m.styles.muted.Render(fmt.Sprintf("%s • %d done • %d total",
		p.Counts.ItemsLeft(), p.Counts.Completed, p.Counts.Total))

	var badges []string
	if m.ephemeral {
		badges = append(badges, m.styles.warning.Render("[not persisted]"))
	}
	if m.unsaved {
		badges = append(badges, m.styles.errorText.Render("[unsaved]"))
	}

	line := title + "  " + counts
	if len(badges) > 0 {
		line += "  " + strings.Join(badges, " ")
	}
	return line
}

func (m Model) renderTabs() string {
	labels := map[settings.Filter]string{
		settings.FilterAll:       "All",
		settings.FilterActive:    "Active",
		settings.FilterCompleted: "Completed",
	}

	var tabs []string
	for i, filter := range settings.Filters {
		label := fmt.Sprintf("%d %s", i+1, labels[filter])
		if filter == m.settings.Filter {
			tabs = append(tabs, m.styles.tabActive.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderList renders the visible tasks, scrolled to keep the selection in view
func (m Model) renderList(p view.Projection, width, height int) string {
	if p.Empty != view.EmptyNone {
		return m.styles.muted.Render(p.EmptyMessage())
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}

	var lines []string
	for i := start; i < len(p.Tasks) && i < start+height; i++ {
		lines = append(lines, m.renderTask(p.Tasks[i], i == m.selected, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTask(t task.Task, selected bool, width int) string {
	box := "[ ] "
	if t.Completed {
		box = "[x] "
	}
	text := displayText(t.Text, width-len(box))

	if selected {
		return m.styles.selected.Render(box + text)
	}
	if t.Completed {
		return m.styles.muted.Render(box) + m.styles.completed.Render(text)
	}
	return m.styles.muted.Render(box) + m.styles.active.Render(text)
}

// displayText strips terminal control sequences from stored text and fits
// it to width cells
func displayText(text string, width int) string {
	clean := view.Printable(text)
	if width <= 0 {
		return clean
	}
	return ansi.Truncate(clean, width, "…")
}

func (m Model) renderInput() string {
	label := "New task"
	if m.mode == modeEdit {
		label = "Edit task"
	}

	var feedback string
	if m.input.Value() != "" {
		checked := validate.Validate(m.input.Value(), m.existingTexts())
		switch {
		case !checked.OK:
			feedback = m.styles.errorText.Render(checked.Violations[0].Message)
		case len(checked.Warnings) > 0:
			feedback = m.styles.warning.Render(checked.Warnings[0].Message)
		default:
			feedback = m.styles.muted.Render(fmt.Sprintf("%d/%d", len([]rune(checked.Cleaned)), validate.MaxLength))
		}
	}

	return m.styles.title.Render(label) + " " + m.input.View() + "\n" + feedback
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	return m.statusStyle(m.statusKind).Render(m.status)
}

func (m Model) statusStyle(kind statusKind) lipgloss.Style {
	switch kind {
	case statusSuccess:
		return m.styles.success
	case statusWarning:
		return m.styles.warning
	case statusError:
		return m.styles.errorText
	}
	return m.styles.muted
}

// renderHelp renders the help line, replaced by a recent log record
func (m Model) renderHelp(p view.Projection) string {
	if m.logRecord != nil {
		return m.statusStyle(statusLevel(m.logRecord.Level)).Render(displayText(m.logRecord.Summary, m.width))
	}

	var bindings []key.Binding
	switch m.mode {
	case modeAdd, modeEdit:
		bindings = []key.Binding{m.keys.Submit, m.keys.Cancel}
	default:
		bindings = []key.Binding{m.keys.Up, m.keys.Down, m.keys.Add, m.keys.Edit, m.keys.Toggle, m.keys.Delete, m.keys.ToggleAll}
		if p.Counts.HasCompleted {
			bindings = append(bindings, m.keys.ClearCompleted)
		}
		if m.store.CanUndo() {
			bindings = append(bindings, m.keys.Undo)
		}
		bindings = append(bindings, m.keys.NextFilter, m.keys.Theme, m.keys.Quit)
	}

	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+": "+help.Desc)
	}
	return m.styles.muted.Render(displayText(" "+strings.Join(parts, " • "), m.width))
}

// renderConfirmClear renders the clear-completed confirmation prompt
func (m Model) renderConfirmClear(p view.Projection) string {
	prompt := fmt.Sprintf("Clear %s? (y/n)", plural(p.Counts.Completed, "completed task"))
	box := m.styles.dialog.Render(prompt)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}
