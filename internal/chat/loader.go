package chat

import (
	"context"
)

// HistoryLoader fetches pages of room history, newest page first. An empty
// cursor requests the newest page.
type HistoryLoader interface {
	FetchPage(ctx context.Context, roomID string, cursor PageCursor) (Page, error)
}

// LoaderFunc adapts a function to HistoryLoader.
type LoaderFunc func(ctx context.Context, roomID string, cursor PageCursor) (Page, error)

func (f LoaderFunc) FetchPage(ctx context.Context, roomID string, cursor PageCursor) (Page, error) {
	return f(ctx, roomID, cursor)
}
