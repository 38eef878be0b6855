package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/feed"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const (
	wsBackfillLimit = 100
	wsWriteTimeout  = 5 * time.Second
)

// handleRoomWS upgrades to WebSocket and streams the room's messages.
// With ?after=<RFC3339Nano> the messages sent after that instant are
// replayed first, so a reconnecting client misses nothing. When more were
// sent than one backfill carries, an error frame tells the client.
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !s.store.HasRoom(roomID) {
		writeError(w, http.StatusNotFound, "not_found", "Chat room not found")
		return
	}

	var afterTime time.Time
	if afterParam := r.URL.Query().Get("after"); afterParam != "" {
		t, err := time.Parse(time.RFC3339Nano, afterParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "after must be RFC3339")
			return
		}
		afterTime = t
	}

	// Subscribe before the handshake so nothing posted after the upgrade
	// is missed.
	ch, unsub := s.pubsub.Subscribe(roomID)
	defer unsub()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		tuilog.Log.Error("WebSocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	userID := userFrom(ctx)

	if !afterTime.IsZero() {
		backfill, more, err := s.store.Since(roomID, afterTime, wsBackfillLimit)
		if err != nil {
			tuilog.Log.Error("WS backfill query failed", "room", roomID, "error", err)
		}
		for _, m := range backfill {
			if err := writeFrame(ctx, conn, messageFrame(m)); err != nil {
				tuilog.Log.Debug("WS backfill write failed", "error", err)
				return
			}
		}
		if more {
			tuilog.Log.Info("WS backfill truncated", "room", roomID, "limit", wsBackfillLimit)
			if err := writeFrame(ctx, conn, feed.Frame{Type: feed.FrameError, Error: feed.ErrorMissedMessages}); err != nil {
				return
			}
		}
	}

	wsConnectionsActive.Inc()
	defer wsConnectionsActive.Dec()
	tuilog.Log.Info("WebSocket client connected", "room", roomID, "user", userID)

	replies := make(chan feed.Frame, 4)
	go s.readFrames(ctx, cancel, conn, roomID, userID, replies)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case f := <-replies:
			if err := writeFrame(ctx, conn, f); err != nil {
				return
			}
		case m, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "subscription closed")
				return
			}
			if err := writeFrame(ctx, conn, messageFrame(m)); err != nil {
				tuilog.Log.Debug("WS write failed", "room", roomID, "error", err)
				return
			}
		}
	}
}

// readFrames handles client "send" frames until the connection drops.
// Posted messages reach the sender through the room subscription.
func (s *Server) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, roomID, userID string, replies chan<- feed.Frame) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var f feed.Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Type != feed.FrameSend {
			reply(ctx, replies, feed.Frame{Type: feed.FrameError, Error: "bad_frame"})
			continue
		}
		if _, err := s.post(roomID, userID, f.Content, "ws"); err != nil {
			code := "internal_error"
			switch {
			case errors.Is(err, errThrottled):
				code = "rate_limited"
			case errors.Is(err, ErrEmptyMessage):
				code = "empty_message"
			}
			reply(ctx, replies, feed.Frame{Type: feed.FrameError, Error: code})
		}
	}
}

func reply(ctx context.Context, replies chan<- feed.Frame, f feed.Frame) {
	select {
	case replies <- f:
	case <-ctx.Done():
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, f feed.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

// messageFrame wraps m for the wire.
func messageFrame(m chat.Message) feed.Frame {
	return feed.Frame{Type: feed.FrameMessage, Message: &m}
}
