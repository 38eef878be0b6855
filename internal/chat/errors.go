package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleResponse is returned by Apply for a result that belongs to a
	// torn-down room or a superseded request.
	ErrStaleResponse = errors.New("stale history response")

	// ErrMalformedPage marks a page that is unsorted or carries empty or
	// duplicate message IDs.
	ErrMalformedPage = errors.New("malformed history page")
)

// FetchError is a failed history request. The window is left untouched and
// the request can be retried.
type FetchError struct {
	Room string
	Op   Op
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page for room %s: %v", e.Op, e.Room, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func validatePage(p Page) error {
	seen := make(map[string]struct{}, len(p.Messages))
	for i, m := range p.Messages {
		if m.ID == "" {
			return fmt.Errorf("%w: message %d has no id", ErrMalformedPage, i)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrMalformedPage, m.ID)
		}
		seen[m.ID] = struct{}{}
		if i > 0 && m.SentAt.Before(p.Messages[i-1].SentAt) {
			return fmt.Errorf("%w: message %q out of order", ErrMalformedPage, m.ID)
		}
	}
	return nil
}
