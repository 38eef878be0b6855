package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/i18n"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const (
	nicknameWidth = 12
	minBubble     = 10
)

// messageRenderer turns the window into viewport lines and records the
// first line of every message. Rendered blocks are cached by message ID
// until the width changes.
type messageRenderer struct {
	selfID   string
	markdown bool
	styles   *Styles

	width int
	cache map[string]string
	md    *glamour.TermRenderer
}

func newMessageRenderer(selfID string, markdown bool) *messageRenderer {
	return &messageRenderer{
		selfID:   selfID,
		markdown: markdown,
		styles:   GetStyles(),
		cache:    make(map[string]string),
	}
}

// render lays out msgs for the given width. A date separator precedes the
// first message of each day; it sits in the gap above the message, so a
// message's top row does not move when the separator moves to an older
// message.
func (r *messageRenderer) render(msgs []chat.Message, width int) ([]string, map[string]int) {
	if width != r.width {
		r.width = width
		r.cache = make(map[string]string)
		r.md = nil
	}

	lines := make([]string, 0, len(msgs)*3)
	tops := make(map[string]int, len(msgs))
	var prev chat.Message
	for i, m := range msgs {
		if i == 0 || i18n.DateChanged(prev.SentAt, m.SentAt) {
			lines = append(lines, r.dateLine(m, width), "")
		}
		tops[m.ID] = len(lines)
		block, ok := r.cache[m.ID]
		if !ok {
			block = r.block(m, width)
			r.cache[m.ID] = block
		}
		lines = append(lines, strings.Split(block, "\n")...)
		lines = append(lines, "")
		prev = m
	}
	return lines, tops
}

func (r *messageRenderer) dateLine(m chat.Message, width int) string {
	label := " " + i18n.FormatDate(m.SentAt) + " "
	side := max(0, (width-ansi.StringWidth(label))/2)
	rule := strings.Repeat("─", side)
	return ansi.Truncate(r.styles.DateSeparator.Render(rule+label+rule), width, "")
}

func (r *messageRenderer) bubbleWidth(width int) int {
	return max(minBubble, min(width*3/4, width-2))
}

func (r *messageRenderer) block(m chat.Message, width int) string {
	s := r.styles
	clock := s.Clock.Render(i18n.FormatClock(m.SentAt))
	inner := r.bubbleWidth(width)

	nick := m.Author.Nickname
	if nick == "" {
		nick = m.AuthorID
	}
	nick = s.Nickname.Render(ansi.Truncate(nick, nicknameWidth, "…"))

	if r.selfID != "" && m.AuthorID == r.selfID {
		bubble := s.OwnBubble.Width(inner).Render(r.body(m.Content, inner-2))
		bubble = shrink(bubble)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, clock+" "+nick+"\n"+bubble)
	}

	header := nick + " " + clock
	bubble := shrink(s.OtherBubble.Width(inner).Render(r.body(m.Content, inner-2)))
	return header + "\n" + bubble
}

// body renders message content, as markdown when enabled.
func (r *messageRenderer) body(content string, width int) string {
	if !r.markdown {
		return content
	}
	if r.md == nil {
		md, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			tuilog.Log.Warn("markdown renderer unavailable", "error", err)
			r.markdown = false
			return content
		}
		r.md = md
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// shrink trims trailing padding so short messages get narrow bubbles.
func shrink(block string) string {
	lines := strings.Split(block, "\n")
	w := 0
	for _, l := range lines {
		w = max(w, ansi.StringWidth(strings.TrimRight(ansi.Strip(l), " "))+1)
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, w, "")
	}
	return strings.Join(lines, "\n")
}
