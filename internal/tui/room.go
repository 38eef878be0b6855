package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/feed"
	"github.com/wethinkt/go-studyroom/internal/i18n"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// chromeRows is the number of rows around the message viewport.
const chromeRows = 5

// ErrReadOnly is returned when sending on a replay feed.
var ErrReadOnly = errors.New("replay feed is read-only")

// Feed is a live message source for a room.
type Feed interface {
	Events() <-chan feed.Event
	Send(content string) error
	Reconnect()
	Close()
}

// replayFeed wraps a tailed file as a read-only Feed.
type replayFeed struct {
	events <-chan feed.Event
	cancel context.CancelFunc
}

// NewReplayFeed adapts an event channel from feed.TailFile.
func NewReplayFeed(events <-chan feed.Event, cancel context.CancelFunc) Feed {
	return &replayFeed{events: events, cancel: cancel}
}

func (r *replayFeed) Events() <-chan feed.Event { return r.events }
func (r *replayFeed) Send(string) error         { return ErrReadOnly }
func (r *replayFeed) Reconnect()                {}
func (r *replayFeed) Close()                    { r.cancel() }

// RoomConfig configures a RoomModel.
type RoomConfig struct {
	RoomID string
	Title  string // shown in the header; defaults to RoomID
	SelfID string // messages by this user are right-aligned
	Loader chat.HistoryLoader
	Feed   Feed // may be nil for history-only viewing
	// EdgeRows is the near-top / near-bottom threshold in rows.
	EdgeRows     int
	Markdown     bool
	FetchTimeout time.Duration
	Logger       *tuilog.Logger
}

// pageMsg carries a finished history fetch back to the event loop.
type pageMsg struct {
	res chat.PageResult
}

// feedEventMsg delivers one live feed event.
type feedEventMsg struct {
	ev feed.Event
}

// feedEndedMsg signals the feed channel was closed.
type feedEndedMsg struct{}

type feedStatus int

const (
	feedConnecting feedStatus = iota
	feedLive
	feedOffline
	feedEnded
)

// RoomModel is the chat screen for one room.
type RoomModel struct {
	cfg      RoomConfig
	ctrl     *chat.Controller
	view     *scrollView
	input    textinput.Model
	spinner  spinner.Model
	keys     roomKeyMap
	log      *tuilog.Logger
	width    int
	height   int
	ready    bool
	status   feedStatus
	failures int
	unread   int
	notice   string // last send error
}

// NewRoomModel creates the chat screen.
func NewRoomModel(cfg RoomConfig) RoomModel {
	log := cfg.Logger
	if log == nil {
		log = tuilog.Log
	}
	if cfg.Title == "" {
		cfg.Title = cfg.RoomID
	}

	renderer := newMessageRenderer(cfg.SelfID, cfg.Markdown)
	view := newScrollView(renderer.render, cfg.EdgeRows)
	ctrl := chat.New(cfg.Loader, view, chat.Options{Logger: log, Timeout: cfg.FetchTimeout})

	input := textinput.New()
	input.Placeholder = i18n.T("chat.input.placeholder", "Type a message...")
	input.Prompt = "› "
	input.CharLimit = 2000
	input.Focus()

	s := GetStyles()
	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(s.Title),
	)

	status := feedConnecting
	if cfg.Feed == nil {
		status = feedEnded
	}

	return RoomModel{
		cfg:     cfg,
		ctrl:    ctrl,
		view:    view,
		input:   input,
		spinner: sp,
		keys:    defaultRoomKeyMap(),
		log:     log.With("room", cfg.RoomID),
		status:  status,
	}
}

func (m RoomModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		runFetch(m.ctrl.Initialize(m.cfg.RoomID)),
		m.spinner.Tick,
		textinput.Blink,
	}
	if m.cfg.Feed != nil {
		cmds = append(cmds, waitForFeed(m.cfg.Feed.Events()))
	}
	return tea.Batch(cmds...)
}

// runFetch runs a controller fetch as a tea command.
func runFetch(c chat.Cmd) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		return pageMsg{res: c()}
	}
}

// waitForFeed returns a command that blocks until the next feed event.
func waitForFeed(ch <-chan feed.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return feedEndedMsg{}
		}
		return feedEventMsg{ev: ev}
	}
}

func (m RoomModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Resize(max(1, msg.Width), max(1, msg.Height-chromeRows))
		m.input.SetWidth(max(10, msg.Width-4))
		m.ready = true
		return m, m.proximity()

	case pageMsg:
		// Failures are shown from the controller's state.
		if err := m.ctrl.Apply(msg.res); err != nil {
			return m, nil
		}
		// The top may still be in range after a short page; keep filling.
		return m, m.proximity()

	case feedEventMsg:
		m.handleFeedEvent(msg.ev)
		if msg.ev.Kind == feed.EventClosed {
			m.status = feedEnded
			return m, nil
		}
		return m, waitForFeed(m.cfg.Feed.Events())

	case feedEndedMsg:
		m.status = feedEnded
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseWheelMsg:
		m.view.HandleMouse(msg)
		return m, m.afterScroll()

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctrl.Teardown()
			if m.cfg.Feed != nil {
				m.cfg.Feed.Close()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Send):
			m.send()
			return m, nil
		case key.Matches(msg, m.keys.Retry):
			return m, runFetch(m.ctrl.Retry())
		case key.Matches(msg, m.keys.Reconnect):
			if m.cfg.Feed != nil && m.status == feedOffline {
				m.status = feedConnecting
				m.cfg.Feed.Reconnect()
			}
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.view.ScrollBy(-1)
			return m, m.afterScroll()
		case key.Matches(msg, m.keys.Down):
			m.view.ScrollBy(1)
			return m, m.afterScroll()
		case key.Matches(msg, m.keys.PgUp):
			m.view.ScrollBy(-m.view.PageSize())
			return m, m.afterScroll()
		case key.Matches(msg, m.keys.PgDown):
			m.view.ScrollBy(m.view.PageSize())
			return m, m.afterScroll()
		case key.Matches(msg, m.keys.Top):
			m.view.ScrollTo(0)
			return m, m.afterScroll()
		case key.Matches(msg, m.keys.Bottom):
			m.view.ScrollToBottom()
			return m, m.afterScroll()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *RoomModel) handleFeedEvent(ev feed.Event) {
	switch ev.Kind {
	case feed.EventMessage:
		following := m.view.NearBottom()
		if m.ctrl.ReceiveLive(ev.Message) && m.ctrl.Mounted() && !following {
			m.unread++
		}
	case feed.EventConnected:
		m.status = feedLive
		m.failures = 0
	case feed.EventDisconnected:
		m.status = feedOffline
		m.failures = ev.Failures
	case feed.EventGap:
		m.notice = i18n.T("chat.feed.gap", "Some messages sent while offline were not loaded.")
	case feed.EventClosed:
		if ev.Err != nil && !errors.Is(ev.Err, context.Canceled) {
			m.log.Warn("live feed closed", "error", ev.Err)
		}
	}
}

// afterScroll clears the unread counter at the bottom and asks for older
// history near the top.
func (m *RoomModel) afterScroll() tea.Cmd {
	if m.view.NearBottom() {
		m.unread = 0
	}
	return m.proximity()
}

func (m *RoomModel) proximity() tea.Cmd {
	if !m.ready || !m.view.NearTop() {
		return nil
	}
	return runFetch(m.ctrl.OnProximity())
}

func (m *RoomModel) send() {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return
	}
	if m.cfg.Feed == nil {
		m.notice = i18n.T("chat.send.readOnly", "This view is read-only.")
		return
	}
	if err := m.cfg.Feed.Send(content); err != nil {
		m.log.Warn("send failed", "error", err)
		switch {
		case errors.Is(err, ErrReadOnly):
			m.notice = i18n.T("chat.send.readOnly", "This view is read-only.")
		case errors.Is(err, feed.ErrNotConnected):
			m.notice = i18n.T("chat.send.offline", "Not connected. Your message was not sent.")
		default:
			m.notice = i18n.T("chat.send.failed", "Failed to send the message.")
		}
		return
	}
	m.notice = ""
	m.input.Reset()
	m.view.ScrollToBottom()
	m.unread = 0
}

func (m RoomModel) View() tea.View {
	if !m.ready {
		v := tea.NewView(m.spinner.View() + " " + i18n.T("common.loading", "Loading..."))
		v.AltScreen = true
		return v
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.historyStatusView())
	b.WriteString("\n")
	b.WriteString(m.bodyView())
	b.WriteString("\n")
	b.WriteString(m.bottomStatusView())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.helpView())

	v := tea.NewView(b.String())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (m RoomModel) headerView() string {
	s := GetStyles()
	var status string
	switch m.status {
	case feedLive:
		status = s.Online.Render("● " + i18n.T("chat.feed.live", "live"))
	case feedConnecting:
		status = m.spinner.View() + " " + s.Away.Render(i18n.T("chat.feed.connecting", "connecting"))
	case feedOffline:
		status = s.Error.Render(i18n.Tf("chat.feed.offline", "offline (attempt %d)", m.failures))
	default:
		status = s.Notice.Render(i18n.T("chat.feed.ended", "live updates off"))
	}
	title := s.Title.Render(m.cfg.Title)
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(status))
	return title + strings.Repeat(" ", gap) + status
}

// historyStatusView is the fixed row above the messages that reports
// loading and errors for older history.
func (m RoomModel) historyStatusView() string {
	s := GetStyles()
	if !m.ctrl.Mounted() {
		return ""
	}
	switch m.ctrl.State() {
	case chat.LoadingOlder:
		return m.spinner.View() + " " + s.Notice.Render(i18n.T("chat.loadingOlder", "Loading earlier messages..."))
	case chat.Error:
		return s.Error.Render(i18n.T("chat.error.older", "Failed to load earlier messages.")) + " " +
			s.Help.Render(i18n.T("chat.retryHint", "ctrl+r to retry"))
	}
	if !m.ctrl.HasMore() && m.ctrl.Len() > 0 {
		return s.Notice.Render(i18n.T("chat.beginning", "Beginning of the conversation"))
	}
	return ""
}

func (m RoomModel) bodyView() string {
	s := GetStyles()
	h := max(1, m.height-chromeRows)
	center := func(text string) string {
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, text)
	}

	if !m.ctrl.Mounted() {
		switch m.ctrl.State() {
		case chat.Error:
			return center(s.Error.Render(i18n.T("chat.error.initial", "Failed to load messages.")) + "\n" +
				s.Help.Render(i18n.T("chat.retryHint", "ctrl+r to retry")))
		default:
			return center(m.spinner.View() + " " + s.Notice.Render(i18n.T("chat.loadingInitial", "Loading messages...")))
		}
	}
	if m.ctrl.Len() == 0 {
		return center(s.Notice.Render(i18n.T("chat.empty", "No messages yet.")))
	}
	return m.view.View()
}

func (m RoomModel) bottomStatusView() string {
	s := GetStyles()
	switch {
	case m.notice != "":
		return s.Error.Render(m.notice)
	case m.unread > 0:
		return s.Unread.Render("↓ " + i18n.Tn("chat.unread", "{{.Count}} new message", "{{.Count}} new messages", m.unread))
	}
	return ""
}

func (m RoomModel) helpView() string {
	s := GetStyles()
	parts := make([]string, 0, 6)
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.Help.Render(strings.Join(parts, "  "))
}
