package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the task list
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	Top  key.Binding
	End  key.Binding

	Add            key.Binding
	Edit           key.Binding
	Toggle         key.Binding
	Delete         key.Binding
	ToggleAll      key.Binding
	ClearCompleted key.Binding
	Undo           key.Binding

	NextFilter      key.Binding
	FilterAll       key.Binding
	FilterActive    key.Binding
	FilterCompleted key.Binding
	Theme           key.Binding

	// Input mode
	Submit key.Binding
	Cancel key.Binding

	// Confirmation prompt
	Confirm key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Add: key.NewBinding(
		key.WithKeys("a", "n"),
		key.WithHelp("a", "add"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e", "enter"),
		key.WithHelp("e", "edit"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "done"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	ToggleAll: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "toggle all"),
	),
	ClearCompleted: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "clear done"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u", "ctrl+z"),
		key.WithHelp("u", "undo"),
	),
	NextFilter: key.NewBinding(
		key.WithKeys("f", "tab"),
		key.WithHelp("f", "filter"),
	),
	FilterAll: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "all"),
	),
	FilterActive: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "active"),
	),
	FilterCompleted: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "completed"),
	),
	Theme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "save"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
