// Package styles provides shared lipgloss styles for CLI and TUI output.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	WarnStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style
	MutedStyle   lipgloss.Style

	// Inbox list styles.
	UnreadTitleStyle lipgloss.Style
	ReadTitleStyle   lipgloss.Style
	UnreadMarkStyle  lipgloss.Style
	TimestampStyle   lipgloss.Style
	RouteStyle       lipgloss.Style
	SelectedRowStyle lipgloss.Style
	NormalRowStyle   lipgloss.Style

	// Chrome.
	TitleBarStyle  lipgloss.Style
	BadgeStyle     lipgloss.Style
	StatusBarStyle lipgloss.Style
	HelpStyle      lipgloss.Style
	DetailStyle    lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	WarnStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	UnreadTitleStyle = lipgloss.NewStyle().Foreground(p.Foreground).Bold(true)
	ReadTitleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	UnreadMarkStyle = lipgloss.NewStyle().Foreground(p.Primary)
	TimestampStyle = lipgloss.NewStyle().Foreground(p.Muted)
	RouteStyle = lipgloss.NewStyle().Foreground(p.Secondary).Italic(true)
	SelectedRowStyle = lipgloss.NewStyle().
		Background(Blend(p.Surface, p.Primary, 0.2)).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(p.Primary).
		PaddingLeft(1)
	NormalRowStyle = lipgloss.NewStyle().PaddingLeft(2)

	TitleBarStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Bold(true).
		Padding(0, 1)
	BadgeStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Warning).
		Bold(true).
		Padding(0, 1)
	StatusBarStyle = lipgloss.NewStyle().Foreground(p.Muted)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginTop(1)
	DetailStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 1)
}

// Blend mixes two hex colors in Lab space. t=0 yields a, t=1 yields b.
// Unparseable input returns a unchanged.
func Blend(a, b lipgloss.Color, t float64) lipgloss.Color {
	ca, err := colorful.Hex(string(a))
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(string(b))
	if err != nil {
		return a
	}
	return lipgloss.Color(ca.BlendLab(cb, t).Clamped().Hex())
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	fg := hexPtr(p.Foreground)
	primary := hexPtr(p.Primary)
	secondary := hexPtr(p.Secondary)
	muted := hexPtr(p.Muted)

	zero := uint(0)
	cfg.Document.Margin = &zero
	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = hexPtr(p.Surface)
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}
