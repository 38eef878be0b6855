package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/wethinkt/go-studyroom/internal/i18n"
)

// RoomOption is one room in the picker.
type RoomOption struct {
	ID       string
	Name     string
	Messages int
}

// Label is the name shown for the room, falling back to its ID.
func (o RoomOption) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

// RoomPickerResult holds the result of the room picker.
type RoomPickerResult struct {
	Room      *RoomOption
	Cancelled bool
}

// RoomPickerModel lets the user choose a room before opening it.
type RoomPickerModel struct {
	options  []RoomOption
	cursor   int
	result   RoomPickerResult
	quitting bool
	width    int
	height   int
}

type roomPickerKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Quit  key.Binding
}

func defaultRoomPickerKeyMap() roomPickerKeyMap {
	return roomPickerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// NewRoomPickerModel creates a picker over options.
func NewRoomPickerModel(options []RoomOption) RoomPickerModel {
	opts := make([]RoomOption, len(options))
	copy(opts, options)
	return RoomPickerModel{options: opts}
}

func (m RoomPickerModel) Init() tea.Cmd { return nil }

func (m RoomPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keys := defaultRoomPickerKeyMap()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, keys.Up):
			m.moveCursor(-1)

		case key.Matches(msg, keys.Down):
			m.moveCursor(1)

		case key.Matches(msg, keys.Quit):
			m.result.Cancelled = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if len(m.options) == 0 {
				return m, nil
			}
			room := m.options[m.cursor]
			m.result.Room = &room
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// moveCursor moves by dir, wrapping at both ends.
func (m *RoomPickerModel) moveCursor(dir int) {
	n := len(m.options)
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + dir + n) % n
}

func (m RoomPickerModel) viewContent() string {
	s := GetStyles()
	var b strings.Builder

	b.WriteString(s.Title.MarginBottom(1).Render(i18n.T("tui.rooms.title", "Select a Room")))
	b.WriteString("\n")

	if len(m.options) == 0 {
		b.WriteString(s.Notice.Render(i18n.T("tui.rooms.empty", "No rooms available.")))
		b.WriteString("\n")
	}

	nameWidth := 0
	for _, o := range m.options {
		nameWidth = max(nameWidth, ansi.StringWidth(o.Label()))
	}
	nameWidth = min(nameWidth, 40)

	for i, o := range m.options {
		if i == m.cursor {
			b.WriteString(s.Online.Bold(true).Render("> "))
		} else {
			b.WriteString("  ")
		}

		name := ansi.Truncate(o.Label(), nameWidth, "…")
		name += strings.Repeat(" ", nameWidth-ansi.StringWidth(name))
		if i == m.cursor {
			name = lipgloss.NewStyle().Bold(true).Render(name)
		}
		b.WriteString(name)
		b.WriteString("  ")
		b.WriteString(s.Clock.Render(i18n.Tn("tui.rooms.messages", "{{.Count}} message", "{{.Count}} messages", o.Messages)))
		b.WriteString("\n")
	}

	b.WriteString(s.Help.MarginTop(1).Render(i18n.T("tui.rooms.help", "enter open • esc cancel")))

	inner := lipgloss.NewStyle().Padding(1, 3).Render(b.String())

	// Center in terminal if we have dimensions
	if m.width > 0 && m.height > 0 {
		inner = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, inner)
	}
	return inner
}

func (m RoomPickerModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	v := tea.NewView(m.viewContent())
	v.AltScreen = true
	return v
}

// Result returns the picker result.
func (m RoomPickerModel) Result() RoomPickerResult {
	return m.result
}

// PickRoom runs the picker and returns the chosen room, or nil when the
// user cancelled.
func PickRoom(options []RoomOption, opts ...tea.ProgramOption) (*RoomOption, error) {
	p := tea.NewProgram(NewRoomPickerModel(options), opts...)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	result := final.(RoomPickerModel).Result()
	if result.Cancelled {
		return nil, nil
	}
	return result.Room, nil
}
