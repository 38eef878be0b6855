package tui

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Palette names the colors the chat screen is drawn with.
type Palette struct {
	Accent     string
	Text       string
	Secondary  string
	Muted      string
	OwnBg      string
	OwnFg      string
	OtherBg    string
	OtherFg    string
	Nickname   string
	Error      string
	Online     string
	Offline    string
	BorderIdle string
}

// DefaultPalette is tuned for dark terminals.
func DefaultPalette() Palette {
	return Palette{
		Accent:     "#7aa2f7",
		Text:       "#c0caf5",
		Secondary:  "#a9b1d6",
		Muted:      "#565f89",
		OwnBg:      "#3d59a1",
		OwnFg:      "#e6e9f5",
		OtherBg:    "#24283b",
		OtherFg:    "#c0caf5",
		Nickname:   "#bb9af7",
		Error:      "#ff6b6b",
		Online:     "#7fcc5a",
		Offline:    "#e0af68",
		BorderIdle: "#3b4261",
	}
}

// Styles holds all the computed lipgloss styles for the chat screen.
type Styles struct {
	// Header
	Title  lipgloss.Style
	Online lipgloss.Style
	Away   lipgloss.Style

	// Message bubbles
	OwnBubble   lipgloss.Style
	OtherBubble lipgloss.Style
	Nickname    lipgloss.Style
	Clock       lipgloss.Style

	// Separators and notices
	DateSeparator lipgloss.Style
	Notice        lipgloss.Style
	Error         lipgloss.Style
	Unread        lipgloss.Style

	Input lipgloss.Style
	Help  lipgloss.Style
}

var (
	stylesOnce sync.Once
	styles     Styles
)

// GetStyles returns the current styles, building them on first use.
func GetStyles() *Styles {
	stylesOnce.Do(func() {
		styles = buildStyles(DefaultPalette())
	})
	return &styles
}

// buildStyles creates Styles from a Palette.
func buildStyles(p Palette) Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.Accent)),
		Online: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Online)),
		Away:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Offline)),

		OwnBubble: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.OwnFg)).
			Background(lipgloss.Color(p.OwnBg)).
			Padding(0, 1),
		OtherBubble: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.OtherFg)).
			Background(lipgloss.Color(p.OtherBg)).
			Padding(0, 1),
		Nickname: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.Nickname)),
		Clock: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),

		DateSeparator: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Secondary)).
			Align(lipgloss.Center),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.Muted)).
			Italic(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Error)),
		Unread: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.Accent)),

		Input: lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(p.BorderIdle)),
		Help: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Muted)),
	}
}
