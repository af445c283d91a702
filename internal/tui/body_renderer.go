package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/core/styles"
)

// bodyRenderer renders notification bodies for the detail pane, caching the
// output per notification for the current width.
type bodyRenderer struct {
	markdown bool
	width    int
	term     *glamour.TermRenderer
	cache    map[int64]string
}

func newBodyRenderer(markdown bool) *bodyRenderer {
	return &bodyRenderer{markdown: markdown, cache: make(map[int64]string)}
}

// SetWidth changes the wrap width and drops cached output.
func (b *bodyRenderer) SetWidth(width int) {
	if width == b.width {
		return
	}
	b.width = width
	b.term = nil
	clear(b.cache)

	if !b.markdown || width <= 0 {
		return
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("tui: markdown renderer unavailable, using plain text")
		return
	}
	b.term = term
}

// Render returns the body of n ready for display.
func (b *bodyRenderer) Render(n notify.Notification) string {
	if out, ok := b.cache[n.ID]; ok {
		return out
	}

	out := b.render(n.Body)
	b.cache[n.ID] = out
	return out
}

func (b *bodyRenderer) render(body string) string {
	if strings.TrimSpace(body) == "" {
		return styles.MutedStyle.Render("(no message)")
	}

	if b.term != nil {
		out, err := b.term.Render(body)
		if err == nil {
			return strings.Trim(out, "\n")
		}
		log.Debug().Err(err).Msg("tui: render markdown body")
	}

	if b.width > 0 {
		return lipgloss.NewStyle().Width(b.width).Render(body)
	}
	return body
}
