package chat

import (
	"slices"
	"sort"
)

// Window is the ordered, deduplicated set of messages held for one room.
// Messages are sorted ascending by SentAt; messages with equal timestamps
// keep the order in which they entered the window.
type Window struct {
	msgs []Message
	ids  map[string]struct{}
}

// Insert adds m at its sorted position. It returns false when m has no ID
// or an equal ID is already present.
func (w *Window) Insert(m Message) bool {
	if m.ID == "" || w.Contains(m.ID) {
		return false
	}
	if w.ids == nil {
		w.ids = make(map[string]struct{})
	}
	// First index strictly after m.SentAt, so ties go behind existing ones.
	i := sort.Search(len(w.msgs), func(i int) bool {
		return w.msgs[i].SentAt.After(m.SentAt)
	})
	w.msgs = slices.Insert(w.msgs, i, m)
	w.ids[m.ID] = struct{}{}
	return true
}

// Merge inserts every message and returns how many were new.
func (w *Window) Merge(msgs []Message) int {
	added := 0
	for _, m := range msgs {
		if w.Insert(m) {
			added++
		}
	}
	return added
}

// Contains reports whether a message with id is in the window.
func (w *Window) Contains(id string) bool {
	_, ok := w.ids[id]
	return ok
}

// Len returns the number of messages.
func (w *Window) Len() int {
	return len(w.msgs)
}

// Messages returns a copy of the window contents in display order.
func (w *Window) Messages() []Message {
	return slices.Clone(w.msgs)
}

// Reset empties the window.
func (w *Window) Reset() {
	w.msgs = nil
	w.ids = nil
}
