// Package feed delivers live chat messages: over a WebSocket from the
// upstream server, or by tailing a local JSONL file for replay.
package feed

import (
	"github.com/wethinkt/go-studyroom/internal/chat"
)

// EventKind classifies feed events.
type EventKind int

const (
	EventMessage EventKind = iota
	EventConnected
	EventDisconnected
	// EventGap means the server could not replay everything sent while
	// the feed was away.
	EventGap
	// EventClosed is the last event; the channel is closed after it.
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventGap:
		return "gap"
	default:
		return "closed"
	}
}

// Event is one item read from a feed.
type Event struct {
	Kind    EventKind
	Message chat.Message // EventMessage
	Err     error        // EventDisconnected, EventClosed
	// Failures counts consecutive failed connection attempts.
	Failures int
}

// Frame types on the wire.
const (
	FrameMessage = "message"
	FrameSend    = "send"
	FrameError   = "error"
)

// ErrorMissedMessages is the error frame code sent after a resume backfill
// that had to leave messages out.
const ErrorMissedMessages = "missed_messages"

// Frame is the JSON envelope exchanged over the live socket. The server
// sends "message" and "error" frames; clients send "send" frames.
type Frame struct {
	Type    string        `json:"type"`
	Message *chat.Message `json:"data,omitempty"`
	Content string        `json:"content,omitempty"`
	Error   string        `json:"error,omitempty"`
}
