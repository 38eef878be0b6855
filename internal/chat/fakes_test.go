package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var base = time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)

// msg builds a message whose SentAt is `at` seconds after base.
func msg(id string, at int) Message {
	return Message{
		ID:       id,
		AuthorID: "u1",
		Content:  "content of " + id,
		SentAt:   base.Add(time.Duration(at) * time.Second),
		Author:   Author{ID: "u1", Nickname: "kim"},
	}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

// fakeViewport lays messages out top to bottom using per-message heights
// and clamps scrolling like a terminal viewport.
type fakeViewport struct {
	heights map[string]int // rows per message; missing IDs take 1 row
	height  int            // visible rows
	edge    int            // proximity threshold in rows

	offset int
	order  []string
	tops   map[string]int
	total  int

	layouts   int
	scrollTos []int
	bottoms   int
}

func newFakeViewport(height int, heights map[string]int) *fakeViewport {
	if heights == nil {
		heights = map[string]int{}
	}
	return &fakeViewport{heights: heights, height: height, tops: map[string]int{}}
}

func (v *fakeViewport) rows(id string) int {
	if h, ok := v.heights[id]; ok {
		return h
	}
	return 1
}

func (v *fakeViewport) maxOffset() int {
	return max(0, v.total-v.height)
}

func (v *fakeViewport) Layout(msgs []Message) {
	v.layouts++
	v.order = v.order[:0]
	v.tops = make(map[string]int, len(msgs))
	y := 0
	for _, m := range msgs {
		v.order = append(v.order, m.ID)
		v.tops[m.ID] = y
		y += v.rows(m.ID)
	}
	v.total = y
	v.offset = min(v.offset, v.maxOffset())
}

func (v *fakeViewport) ScrollTo(offset int) {
	v.scrollTos = append(v.scrollTos, offset)
	v.offset = max(0, min(offset, v.maxOffset()))
}

func (v *fakeViewport) ScrollToBottom() {
	v.bottoms++
	v.offset = v.maxOffset()
}

func (v *fakeViewport) NearTop() bool    { return v.offset <= v.edge }
func (v *fakeViewport) NearBottom() bool { return v.offset >= v.maxOffset()-v.edge }

func (v *fakeViewport) MeasureTopAnchor() (Anchor, bool) {
	for _, id := range v.order {
		top := v.tops[id]
		if top+v.rows(id) > v.offset {
			return Anchor{MessageID: id, Offset: top - v.offset}, true
		}
	}
	return Anchor{}, false
}

func (v *fakeViewport) MessageOffset(id string) (int, bool) {
	top, ok := v.tops[id]
	return top, ok
}

// fakeLoader serves scripted pages keyed by cursor and records requests.
type fakeLoader struct {
	mu    sync.Mutex
	pages map[PageCursor]Page
	errs  map[PageCursor]error
	calls []PageCursor
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{pages: map[PageCursor]Page{}, errs: map[PageCursor]error{}}
}

func (l *fakeLoader) FetchPage(ctx context.Context, roomID string, cursor PageCursor) (Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, cursor)
	if err := l.errs[cursor]; err != nil {
		return Page{}, err
	}
	p, ok := l.pages[cursor]
	if !ok {
		return Page{}, fmt.Errorf("no page for cursor %q", cursor)
	}
	return p, nil
}

func (l *fakeLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}
