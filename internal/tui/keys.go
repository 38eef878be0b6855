package tui

import (
	"charm.land/bubbles/v2/key"

	"github.com/wethinkt/go-studyroom/internal/i18n"
)

// roomKeyMap defines key bindings for the chat room. Printable keys belong
// to the message input, so scrolling uses navigation keys only.
type roomKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PgUp      key.Binding
	PgDown    key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Send      key.Binding
	Retry     key.Binding
	Reconnect key.Binding
	Quit      key.Binding
}

func defaultRoomKeyMap() roomKeyMap {
	return roomKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", i18n.T("tui.help.up", "scroll up")),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", i18n.T("tui.help.down", "scroll down")),
		),
		PgUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("pgup", i18n.T("tui.help.pgup", "page up")),
		),
		PgDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("pgdn", i18n.T("tui.help.pgdown", "page down")),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", i18n.T("tui.help.top", "oldest")),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", i18n.T("tui.help.bottom", "latest")),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", i18n.T("tui.help.send", "send")),
		),
		Retry: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", i18n.T("tui.help.retry", "retry")),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", i18n.T("tui.help.reconnect", "reconnect")),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", i18n.T("tui.help.quit", "quit")),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k roomKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.PgUp, k.Bottom, k.Retry, k.Reconnect, k.Quit}
}
