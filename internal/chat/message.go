package chat

import (
	"time"
)

// Author is the profile shown next to a message.
type Author struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Message is a single chat message. Values are immutable once delivered.
type Message struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"authorId"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sentAt"`
	Author   Author    `json:"author"`
}

// PageCursor is an opaque continuation token returned by the history
// backend. The empty cursor means there is no older history.
type PageCursor string

// Page is one batch of history, ascending by SentAt.
type Page struct {
	Messages   []Message  `json:"messages"`
	NextCursor PageCursor `json:"nextCursor,omitempty"`
}

// HasMore reports whether an older page can be requested.
func (p Page) HasMore() bool {
	return p.NextCursor != ""
}
