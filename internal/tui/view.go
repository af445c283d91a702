package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/core/styles"
)

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	if m.detail {
		b.WriteString(m.detailView())
	} else {
		b.WriteString(m.listView())
	}

	if toasts := m.toastView(); toasts != "" {
		b.WriteString("\n\n")
		b.WriteString(toasts)
	}

	bindings := m.keys.listHelp()
	if m.detail {
		bindings = m.keys.detailHelp()
	}
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(m.help.ShortHelpView(bindings)))
	return b.String()
}

func (m Model) headerView() string {
	parts := []string{styles.TitleBarStyle.Render("Inbox")}
	if m.userID != "" {
		parts = append(parts, styles.MutedStyle.Render(m.userID))
	}
	if m.unread > 0 {
		parts = append(parts, styles.BadgeStyle.Render(fmt.Sprintf("%d unread", m.unread)))
	}
	parts = append(parts, connectionView(m.state))
	return strings.Join(parts, " ")
}

func connectionView(state notify.ConnectionState) string {
	switch state {
	case notify.StateOpen:
		return styles.SuccessStyle.Render(styles.IconLive + " live")
	case notify.StateConnecting:
		return styles.MutedStyle.Render(styles.IconLive + " connecting")
	case notify.StateDegradedPolling:
		return styles.WarnStyle.Render(styles.IconPolling + " polling")
	case notify.StateClosed:
		return styles.ErrorStyle.Render(styles.IconOffline + " offline")
	default:
		return styles.MutedStyle.Render(styles.IconOffline + " idle")
	}
}

func (m Model) listView() string {
	if len(m.items) == 0 {
		return styles.MutedStyle.Render("  No notifications")
	}
	return m.list.View()
}

func (m Model) detailView() string {
	style := styles.DetailStyle.Width(m.detailWidth() + 2)
	return style.Render(m.viewport.View())
}

// detailContent is the scrollable text of the detail pane.
func (m Model) detailContent(n notify.Notification) string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(n.Title))
	b.WriteString("\n")
	b.WriteString(styles.TimestampStyle.Render(n.CreatedAt.Local().Format("Mon Jan 2 15:04") + " · " + ago(m.now(), n.CreatedAt)))
	if route, ok := n.Route(); ok {
		b.WriteString("\n")
		b.WriteString(styles.RouteStyle.Render("→ " + route))
	}
	b.WriteString("\n\n")
	b.WriteString(m.body.Render(n))
	return b.String()
}

// toastHeight is the number of lines toastView adds, including the blank
// separator line.
func (m Model) toastHeight() int {
	n := len(m.toasts.Toasts())
	if n == 0 {
		return 0
	}
	return n + 1
}

func (m Model) toastView() string {
	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		switch t.level {
		case notify.LevelError:
			lines = append(lines, styles.ErrorStyle.Render("✘ "+t.message))
		case notify.LevelWarning:
			lines = append(lines, styles.WarnStyle.Render("! "+t.message))
		default:
			lines = append(lines, styles.InfoStyle.Render("• "+t.message))
		}
	}
	return strings.Join(lines, "\n")
}

// ago renders a compact relative time such as "5m ago".
func ago(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
