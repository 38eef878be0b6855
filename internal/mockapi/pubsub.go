package mockapi

import (
	"sync"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// RoomPubSub fans out posted messages to live subscribers of a room.
type RoomPubSub struct {
	mu   sync.RWMutex
	subs map[string][]*subscriber
}

type subscriber struct {
	ch     chan chat.Message
	closed bool
}

// NewRoomPubSub creates a new pub/sub instance.
func NewRoomPubSub() *RoomPubSub {
	return &RoomPubSub{
		subs: make(map[string][]*subscriber),
	}
}

// Subscribe returns a channel that receives messages posted to roomID.
// Call the returned function to unsubscribe and close the channel.
func (ps *RoomPubSub) Subscribe(roomID string) (<-chan chat.Message, func()) {
	ch := make(chan chat.Message, 64)
	sub := &subscriber{ch: ch}

	ps.mu.Lock()
	ps.subs[roomID] = append(ps.subs[roomID], sub)
	ps.mu.Unlock()

	unsub := func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()

		subs := ps.subs[roomID]
		for i, s := range subs {
			if s == sub {
				ps.subs[roomID] = append(subs[:i:i], subs[i+1:]...)
				if !s.closed {
					s.closed = true
					close(s.ch)
				}
				break
			}
		}
		if len(ps.subs[roomID]) == 0 {
			delete(ps.subs, roomID)
		}
	}

	return ch, unsub
}

// Publish delivers m to every subscriber of roomID. A subscriber whose
// buffer is full misses the message; clients recover it on reconnect.
func (ps *RoomPubSub) Publish(roomID string, m chat.Message) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, sub := range ps.subs[roomID] {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- m:
		default:
			slowSubscriberDrops.Inc()
			tuilog.Log.Warn("Dropping message for slow WebSocket subscriber", "room", roomID)
		}
	}
}

// Subscribers returns the number of live subscribers of roomID.
func (ps *RoomPubSub) Subscribers(roomID string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subs[roomID])
}
