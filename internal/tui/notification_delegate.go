package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/core/styles"
)

// notificationItem wraps a notification for the list component.
type notificationItem struct {
	notify.Notification
}

// FilterValue returns the value used for filtering.
func (i notificationItem) FilterValue() string { return i.Title }

func toItems(items []notify.Notification) []list.Item {
	out := make([]list.Item, len(items))
	for i, n := range items {
		out[i] = notificationItem{n}
	}
	return out
}

// notificationDelegate renders one notification per line:
// unread mark, title, relative time.
type notificationDelegate struct {
	now func() time.Time
}

// Height returns the height of each item.
func (d notificationDelegate) Height() int { return 1 }

// Spacing returns the spacing between items.
func (d notificationDelegate) Spacing() int { return 0 }

// Update handles item updates.
func (d notificationDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

// Render renders a single notification row.
func (d notificationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(notificationItem)
	if !ok {
		return
	}

	mark := styles.MutedStyle.Render(styles.IconRead)
	title := styles.ReadTitleStyle.Render(it.Title)
	if !it.IsRead {
		mark = styles.UnreadMarkStyle.Render(styles.IconUnread)
		title = styles.UnreadTitleStyle.Render(it.Title)
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		mark, " ", title, "  ", styles.TimestampStyle.Render(ago(d.now(), it.CreatedAt)),
	)

	style := styles.NormalRowStyle
	if index == m.Index() {
		style = styles.SelectedRowStyle
	}
	_, _ = fmt.Fprint(w, style.MaxWidth(max(m.Width(), 1)).Render(line))
}
