package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/tasks-tui/internal/settings"
)

// styles is the palette for one theme
type styles struct {
	title     lipgloss.Style
	selected  lipgloss.Style
	completed lipgloss.Style
	active    lipgloss.Style
	muted     lipgloss.Style
	tab       lipgloss.Style
	tabActive lipgloss.Style
	warning   lipgloss.Style
	errorText lipgloss.Style
	success   lipgloss.Style
	border    lipgloss.Style
	dialog    lipgloss.Style
}

func newStyles(theme settings.Theme) styles {
	if theme == settings.ThemeDark {
		return styles{
			title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
			selected:  lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")),
			completed: lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("242")),
			active:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
			tabActive: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
			warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			success:   lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
			border:    lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")),
			dialog:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(1, 2),
		}
	}

	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("91")),
		selected:  lipgloss.NewStyle().Background(lipgloss.Color("153")).Foreground(lipgloss.Color("16")),
		completed: lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("246")),
		active:    lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("240")),
		tabActive: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")),
		warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		success:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
		border:    lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("250")),
		dialog:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("25")).Padding(1, 2),
	}
}
