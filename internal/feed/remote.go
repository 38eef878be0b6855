package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/wethinkt/go-studyroom/internal/auth"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const (
	maxReconnectDelay  = 30 * time.Second
	baseReconnectDelay = 1 * time.Second
	writeTimeout       = 5 * time.Second
	outboxSize         = 16
)

// ErrNotConnected is returned by Send while the socket is down.
var ErrNotConnected = errors.New("live feed not connected")

// Options configures Dial.
type Options struct {
	Session *auth.Session
	// Auth lets Dial reissue the access token when the handshake is
	// rejected with 401.
	Auth   *auth.Client
	Logger *tuilog.Logger
}

// Conn is a self-healing live connection to one room. It reconnects with
// exponential backoff and resumes from the last message seen.
type Conn struct {
	url     string
	opts    Options
	log     *tuilog.Logger
	events  chan Event
	outbox  chan string
	wake    chan struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	online  atomic.Bool
	lastAt  time.Time
	failure int
}

// Dial starts connecting to roomID's live socket under baseURL
// (ws:// or wss://). It returns immediately; connection state is reported
// on Events.
func Dial(ctx context.Context, baseURL, roomID string, opts Options) *Conn {
	log := opts.Logger
	if log == nil {
		log = tuilog.Log
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		url:    fmt.Sprintf("%s/chat-rooms/%s/ws", strings.TrimRight(baseURL, "/"), url.PathEscape(roomID)),
		opts:   opts,
		log:    log.With("room", roomID),
		events: make(chan Event, 64),
		outbox: make(chan string, outboxSize),
		wake:   make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.loop(ctx)
	return c
}

// Events returns the event stream. It is closed after EventClosed.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Send queues a message for the room. The server echoes it back as a
// regular message event.
func (c *Conn) Send(content string) error {
	if !c.online.Load() {
		return ErrNotConnected
	}
	select {
	case c.outbox <- content:
		return nil
	default:
		return fmt.Errorf("send queue full")
	}
}

// Reconnect skips the remaining backoff delay.
func (c *Conn) Reconnect() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Close stops the connection and waits for the loop to exit.
func (c *Conn) Close() {
	c.cancel()
	<-c.done
}

func (c *Conn) emit(ctx context.Context, e Event) bool {
	select {
	case c.events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// closed delivers EventClosed unless the reader has gone away.
func (c *Conn) closed(err error) {
	select {
	case c.events <- Event{Kind: EventClosed, Err: err}:
	default:
	}
}

func (c *Conn) loop(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	for {
		if ctx.Err() != nil {
			c.closed(ctx.Err())
			return
		}

		err := c.runOnce(ctx)
		c.online.Store(false)
		if ctx.Err() != nil {
			c.closed(ctx.Err())
			return
		}

		c.failure++
		c.log.Warn("WebSocket feed disconnected", "error", err, "failures", c.failure)
		if !c.emit(ctx, Event{Kind: EventDisconnected, Err: err, Failures: c.failure}) {
			continue
		}

		// Exponential backoff
		delay := time.Duration(float64(baseReconnectDelay) * math.Pow(2, float64(min(c.failure-1, 5))))
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}

		select {
		case <-time.After(delay):
		case <-c.wake:
			c.log.Info("Reconnect requested")
		case <-ctx.Done():
		}
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	target := c.url
	if !c.lastAt.IsZero() {
		target += "?after=" + url.QueryEscape(c.lastAt.Format(time.RFC3339Nano))
	}

	dialOpts := &websocket.DialOptions{}
	if token := c.opts.Session.AccessToken(); token != "" {
		dialOpts.HTTPHeader = http.Header{
			"Authorization": []string{"Bearer " + token},
		}
	}

	conn, resp, err := websocket.Dial(ctx, target, dialOpts)
	if err != nil && resp != nil && resp.StatusCode == http.StatusUnauthorized && c.opts.Auth != nil && c.opts.Session != nil {
		if rerr := c.opts.Auth.Reissue(ctx, c.opts.Session); rerr != nil {
			return nil, fmt.Errorf("%w (reissue: %v)", err, rerr)
		}
		dialOpts.HTTPHeader = http.Header{
			"Authorization": []string{"Bearer " + c.opts.Session.AccessToken()},
		}
		conn, _, err = websocket.Dial(ctx, target, dialOpts)
	}
	return conn, err
}

func (c *Conn) runOnce(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	c.failure = 0
	c.online.Store(true)
	c.log.Info("WebSocket feed connected")
	if !c.emit(ctx, Event{Kind: EventConnected}) {
		return ctx.Err()
	}

	readCtx, stopRead := context.WithCancel(ctx)
	defer stopRead()

	frames := make(chan Frame)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.Read(readCtx)
			if err != nil {
				readErr <- err
				return
			}
			var f Frame
			if err := json.Unmarshal(data, &f); err != nil {
				c.log.Debug("Failed to parse WS frame", "error", err)
				continue
			}
			select {
			case frames <- f:
			case <-readCtx.Done():
				readErr <- readCtx.Err()
				return
			}
		}
	}()

	for {
		select {
		case f := <-frames:
			switch f.Type {
			case FrameMessage:
				if f.Message == nil {
					continue
				}
				if f.Message.SentAt.After(c.lastAt) {
					c.lastAt = f.Message.SentAt
				}
				if !c.emit(ctx, Event{Kind: EventMessage, Message: *f.Message}) {
					conn.Close(websocket.StatusNormalClosure, "client closing")
					return ctx.Err()
				}
			case FrameError:
				c.log.Warn("Server reported error", "error", f.Error)
				if f.Error == ErrorMissedMessages && !c.emit(ctx, Event{Kind: EventGap}) {
					conn.Close(websocket.StatusNormalClosure, "client closing")
					return ctx.Err()
				}
			}

		case content := <-c.outbox:
			data, _ := json.Marshal(Frame{Type: FrameSend, Content: content})
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

		case err := <-readErr:
			return err

		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client closing")
			return ctx.Err()
		}
	}
}
