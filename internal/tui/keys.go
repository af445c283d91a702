package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the inbox bindings. Cursor movement in the list and scrolling
// in the detail pane are left to the list and viewport key maps; Up, Down and
// Scroll exist for the help line.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Scroll   key.Binding
	Open     key.Binding
	Back     key.Binding
	MarkRead key.Binding
	MarkAll  key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("up", "down", "pgup", "pgdown"),
			key.WithHelp("↑↓/pgup/pgdn", "scroll"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "read"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "read all"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) listHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.MarkRead, k.MarkAll, k.Refresh, k.Quit}
}

func (k keyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Scroll, k.Back, k.MarkRead, k.Refresh, k.Quit}
}
