package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/feed"
)

// settle runs cmd and every follow-up fetch, feeding page results back
// into the model. Other messages are dropped.
func settle(t *testing.T, m RoomModel, cmd tea.Cmd) RoomModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100 {
			t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case pageMsg:
			next, nc := m.Update(msg)
			m = next.(RoomModel)
			queue = append(queue, nc)
		}
	}
	return m
}

func update(t *testing.T, m RoomModel, msg tea.Msg) (RoomModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(RoomModel), cmd
}

func startRoom(t *testing.T, cfg RoomConfig, width, height int) RoomModel {
	t.Helper()
	if cfg.RoomID == "" {
		cfg.RoomID = "room-1"
	}
	m := NewRoomModel(cfg)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: width, Height: height})
	return settle(t, m, m.Init())
}

func screen(m RoomModel) string {
	return ansi.Strip(m.View().Content)
}

func TestRoomModel_FillsTallScreenWithHistory(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{
		"":   {Messages: span(6, 10), NextCursor: "m6"},
		"m6": {Messages: span(1, 5)},
	}}
	m := startRoom(t, RoomConfig{Loader: loader}, 80, 200)

	if got := m.ctrl.Len(); got != 10 {
		t.Errorf("messages = %d, want 10", got)
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2", loader.calls)
	}
	out := screen(m)
	if !strings.Contains(out, "Beginning of the conversation") {
		t.Errorf("expected beginning marker in view:\n%s", out)
	}
	if !strings.Contains(out, "message m1") || !strings.Contains(out, "message m10") {
		t.Errorf("expected all messages in view:\n%s", out)
	}
}

func TestRoomModel_EmptyRoom(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {}}}
	m := startRoom(t, RoomConfig{Loader: loader}, 60, 20)

	if out := screen(m); !strings.Contains(out, "No messages yet.") {
		t.Errorf("expected empty state:\n%s", out)
	}
}

func TestRoomModel_InitialErrorAndRetry(t *testing.T) {
	loader := &scriptedLoader{
		fail:  1,
		pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 3)}},
	}
	m := startRoom(t, RoomConfig{Loader: loader}, 60, 20)

	if m.ctrl.State() != chat.Error {
		t.Fatalf("state = %v, want Error", m.ctrl.State())
	}
	if out := screen(m); !strings.Contains(out, "Failed to load messages.") {
		t.Errorf("expected error in view:\n%s", out)
	}

	m, cmd := update(t, m, tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	m = settle(t, m, cmd)
	if m.ctrl.State() != chat.Idle || m.ctrl.Len() != 3 {
		t.Errorf("after retry: state %v, %d messages", m.ctrl.State(), m.ctrl.Len())
	}
}

func TestRoomModel_LiveMessageWhileScrolledUp(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 20)}}}
	ff := newFakeFeed()
	m := startRoom(t, RoomConfig{Loader: loader, Feed: ff}, 60, 15)

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyHome})
	before, _ := m.view.MeasureTopAnchor()

	m, _ = update(t, m, feedEventMsg{ev: feed.Event{Kind: feed.EventMessage, Message: testMsg("live", "kim", 30)}})
	if m.unread != 1 {
		t.Errorf("unread = %d, want 1", m.unread)
	}
	if after, _ := m.view.MeasureTopAnchor(); after != before {
		t.Errorf("view moved: %+v -> %+v", before, after)
	}
	if out := screen(m); !strings.Contains(out, "1 new message") {
		t.Errorf("expected unread notice:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnd})
	if m.unread != 0 {
		t.Errorf("unread after End = %d, want 0", m.unread)
	}

	// Following the bottom: a new message keeps the view at the bottom.
	m, _ = update(t, m, feedEventMsg{ev: feed.Event{Kind: feed.EventMessage, Message: testMsg("live2", "kim", 31)}})
	if !m.view.NearBottom() || m.unread != 0 {
		t.Errorf("following view should stay at bottom (unread %d)", m.unread)
	}
}

func TestRoomModel_SendMessage(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 2)}}}
	ff := newFakeFeed()
	m := startRoom(t, RoomConfig{Loader: loader, Feed: ff}, 60, 20)

	m.input.SetValue("  hello  ")
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(ff.sent) != 1 || ff.sent[0] != "hello" {
		t.Errorf("sent = %q, want [hello]", ff.sent)
	}
	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}

	ff.sendErr = feed.ErrNotConnected
	m.input.SetValue("again")
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.input.Value() != "again" {
		t.Error("input should be kept when sending fails")
	}
	if !strings.Contains(screen(m), "Not connected") {
		t.Errorf("expected send error notice:\n%s", screen(m))
	}
}

func TestRoomModel_FeedStatus(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 2)}}}
	ff := newFakeFeed()
	m := startRoom(t, RoomConfig{Loader: loader, Feed: ff, Title: "Algorithms"}, 80, 20)

	m, _ = update(t, m, feedEventMsg{ev: feed.Event{Kind: feed.EventConnected}})
	if out := screen(m); !strings.Contains(out, "Algorithms") || !strings.Contains(out, "live") {
		t.Errorf("header missing title or live status:\n%s", out)
	}

	m, _ = update(t, m, feedEventMsg{ev: feed.Event{Kind: feed.EventDisconnected, Failures: 2}})
	if !strings.Contains(screen(m), "offline (attempt 2)") {
		t.Errorf("expected offline status:\n%s", screen(m))
	}

	m, _ = update(t, m, tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl})
	if ff.reconnects != 1 {
		t.Errorf("reconnects = %d, want 1", ff.reconnects)
	}

	m, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil || !ff.closed || m.ctrl.Room() != "" {
		t.Error("quit should close the feed and tear down the room")
	}
}

func TestRoomModel_FeedGapNotice(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 2)}}}
	m := startRoom(t, RoomConfig{Loader: loader, Feed: newFakeFeed()}, 80, 20)

	m, _ = update(t, m, feedEventMsg{ev: feed.Event{Kind: feed.EventGap}})
	if !strings.Contains(screen(m), "were not loaded") {
		t.Errorf("expected a missed-messages notice:\n%s", screen(m))
	}
}

func TestRoomModel_StaleResultsIgnored(t *testing.T) {
	loader := &scriptedLoader{pages: map[chat.PageCursor]chat.Page{"": {Messages: span(1, 2)}}}
	m := startRoom(t, RoomConfig{Loader: loader}, 60, 20)

	stale := pageMsg{res: chat.PageResult{Room: "other-room", Op: chat.OpInitial, Page: chat.Page{Messages: span(3, 4)}}}
	m, cmd := update(t, m, stale)
	if cmd != nil || m.ctrl.Len() != 2 {
		t.Errorf("stale page changed the window: %d messages", m.ctrl.Len())
	}
}
