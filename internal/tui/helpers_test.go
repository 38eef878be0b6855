package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/feed"
)

var day = time.Date(2024, time.March, 7, 10, 0, 0, 0, time.Local)

func testMsg(id, author string, minutes int) chat.Message {
	return chat.Message{
		ID:       id,
		AuthorID: author,
		Content:  "message " + id,
		SentAt:   day.Add(time.Duration(minutes) * time.Minute),
		Author:   chat.Author{ID: author, Nickname: author},
	}
}

// span builds messages m<from>..m<to> by "other", one minute apart.
func span(from, to int) []chat.Message {
	var out []chat.Message
	for i := from; i <= to; i++ {
		out = append(out, testMsg(fmt.Sprintf("m%d", i), "other", i))
	}
	return out
}

// scriptedLoader serves pages by cursor and can fail the first N calls.
type scriptedLoader struct {
	mu    sync.Mutex
	pages map[chat.PageCursor]chat.Page
	fail  int
	calls int
}

func (l *scriptedLoader) FetchPage(ctx context.Context, roomID string, cursor chat.PageCursor) (chat.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.fail > 0 {
		l.fail--
		return chat.Page{}, errors.New("backend unavailable")
	}
	p, ok := l.pages[cursor]
	if !ok {
		return chat.Page{}, fmt.Errorf("no page for %q", cursor)
	}
	return p, nil
}

// fakeFeed records sends. Its event channel is closed so commands that
// wait on it return at once.
type fakeFeed struct {
	events     chan feed.Event
	sent       []string
	sendErr    error
	reconnects int
	closed     bool
}

func newFakeFeed() *fakeFeed {
	ch := make(chan feed.Event)
	close(ch)
	return &fakeFeed{events: ch}
}

func (f *fakeFeed) Events() <-chan feed.Event { return f.events }
func (f *fakeFeed) Reconnect()                { f.reconnects++ }
func (f *fakeFeed) Close()                    { f.closed = true }

func (f *fakeFeed) Send(content string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, content)
	return nil
}
