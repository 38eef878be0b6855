package tui

import (
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-studyroom/internal/chat"
)

// layoutFunc renders messages at a width into lines, returning the first
// line of each message.
type layoutFunc func(msgs []chat.Message, width int) ([]string, map[string]int)

// scrollView adapts a bubbles viewport to chat.Viewport. Offsets are in
// terminal rows; the content is pre-wrapped so one line is one row.
type scrollView struct {
	vp     viewport.Model
	layout layoutFunc
	edge   int

	msgs  []chat.Message
	order []string
	tops  map[string]int
	total int
}

var _ chat.Viewport = (*scrollView)(nil)

func newScrollView(layout layoutFunc, edge int) *scrollView {
	vp := viewport.New()
	vp.MouseWheelEnabled = true
	return &scrollView{vp: vp, layout: layout, edge: max(0, edge), tops: map[string]int{}}
}

// Resize changes the viewport size, keeping the bottom pinned if it was
// followed and otherwise keeping the top visible message in place.
func (s *scrollView) Resize(width, height int) {
	follow := s.NearBottom()
	anchor, ok := s.MeasureTopAnchor()
	widthChanged := width != s.vp.Width()

	s.vp.SetWidth(width)
	s.vp.SetHeight(height)
	if widthChanged {
		s.Layout(s.msgs)
	}
	switch {
	case follow:
		s.ScrollToBottom()
	case ok:
		if top, found := s.MessageOffset(anchor.MessageID); found {
			s.ScrollTo(top - anchor.Offset)
		}
	}
}

func (s *scrollView) Layout(msgs []chat.Message) {
	s.msgs = msgs
	lines, tops := s.layout(msgs, s.vp.Width())
	s.tops = tops
	s.total = len(lines)
	s.order = s.order[:0]
	for _, m := range msgs {
		s.order = append(s.order, m.ID)
	}
	s.vp.SetContentLines(lines)
	if s.vp.YOffset() > s.maxOffset() {
		s.vp.SetYOffset(s.maxOffset())
	}
}

func (s *scrollView) maxOffset() int {
	return max(0, s.total-s.vp.Height())
}

func (s *scrollView) ScrollTo(offset int) {
	s.vp.SetYOffset(offset)
}

func (s *scrollView) ScrollToBottom() {
	s.vp.GotoBottom()
}

// ScrollBy moves the view by delta rows; negative scrolls up.
func (s *scrollView) ScrollBy(delta int) {
	s.vp.SetYOffset(s.vp.YOffset() + delta)
}

func (s *scrollView) PageSize() int {
	return max(1, s.vp.Height()-1)
}

func (s *scrollView) Offset() int {
	return s.vp.YOffset()
}

func (s *scrollView) NearTop() bool {
	return s.vp.YOffset() <= s.edge
}

func (s *scrollView) NearBottom() bool {
	return s.vp.YOffset() >= s.maxOffset()-s.edge
}

func (s *scrollView) MeasureTopAnchor() (chat.Anchor, bool) {
	offset := s.vp.YOffset()
	for i, id := range s.order {
		bottom := s.total
		if i+1 < len(s.order) {
			bottom = s.tops[s.order[i+1]]
		}
		if bottom > offset {
			return chat.Anchor{MessageID: id, Offset: s.tops[id] - offset}, true
		}
	}
	return chat.Anchor{}, false
}

func (s *scrollView) MessageOffset(id string) (int, bool) {
	top, ok := s.tops[id]
	return top, ok
}

// HandleMouse forwards wheel events to the viewport.
func (s *scrollView) HandleMouse(msg tea.MouseWheelMsg) {
	s.vp, _ = s.vp.Update(msg)
}

func (s *scrollView) View() string {
	return s.vp.View()
}
