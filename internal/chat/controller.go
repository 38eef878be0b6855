// Package chat keeps a room's message window consistent with a scrollable
// viewport while history pages and live messages arrive independently.
//
// The Controller is a reducer owned by a single event loop. Operations that
// need the network return a Cmd; the loop runs it elsewhere and hands the
// PageResult back to Apply. Nothing in this package blocks the loop.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// Cmd performs a history fetch off the event loop.
type Cmd func() PageResult

// PageResult is the outcome of a Cmd, tagged with the request it answers.
type PageResult struct {
	Room   string
	Token  uint64
	Op     Op
	Cursor PageCursor
	Page   Page
	Err    error
}

// Options configures a Controller.
type Options struct {
	Logger *tuilog.Logger // defaults to tuilog.Log
	// Timeout bounds each history fetch. Zero means no timeout beyond
	// cancellation by Teardown.
	Timeout time.Duration
}

// Controller owns the message window for one room at a time.
type Controller struct {
	loader  HistoryLoader
	view    Viewport
	log     *tuilog.Logger
	timeout time.Duration

	room    string
	token   uint64
	cancel  context.CancelFunc
	state   LoadState
	err     error
	failed  Op
	window  Window
	cursor  PageCursor
	hasMore bool
	mounted bool // initial page applied and scrolled to bottom

	anchor     Anchor
	haveAnchor bool
}

// New returns a controller with no room.
func New(loader HistoryLoader, view Viewport, opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = tuilog.Log
	}
	return &Controller{
		loader:  loader,
		view:    view,
		log:     log.With("component", "chat"),
		timeout: opts.Timeout,
	}
}

// Initialize switches to roomID and requests its newest page. Any previous
// room is torn down first.
func (c *Controller) Initialize(roomID string) Cmd {
	c.Teardown()
	if roomID == "" {
		return nil
	}
	c.room = roomID
	c.setState(LoadingInitial)
	return c.fetch(OpInitial, "")
}

// LoadOlder requests the page before the oldest loaded message. It returns
// nil while another load is in flight, after a failure, or once history is
// exhausted.
func (c *Controller) LoadOlder() Cmd {
	if c.room == "" || c.state != Idle || !c.hasMore {
		return nil
	}
	c.anchor, c.haveAnchor = c.view.MeasureTopAnchor()
	c.setState(LoadingOlder)
	return c.fetch(OpOlder, c.cursor)
}

// OnProximity handles the viewport reaching the top of the content.
// Events before the initial page has been shown are ignored.
func (c *Controller) OnProximity() Cmd {
	if !c.mounted {
		return nil
	}
	return c.LoadOlder()
}

// Retry re-runs the request that put the controller into Error. Messages
// already in the window are kept.
func (c *Controller) Retry() Cmd {
	if c.room == "" || c.state != Error {
		return nil
	}
	c.err = nil
	switch c.failed {
	case OpOlder:
		c.anchor, c.haveAnchor = c.view.MeasureTopAnchor()
		c.setState(LoadingOlder)
		return c.fetch(OpOlder, c.cursor)
	default:
		c.setState(LoadingInitial)
		return c.fetch(OpInitial, "")
	}
}

// Teardown drops the current room. Pending fetches are cancelled and their
// results will be rejected by Apply.
func (c *Controller) Teardown() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.room != "" {
		c.log.Debug("teardown", "room", c.room, "messages", c.window.Len())
	}
	c.token++
	c.room = ""
	c.state = Idle
	c.err = nil
	c.failed = OpInitial
	c.window.Reset()
	c.cursor = ""
	c.hasMore = false
	c.mounted = false
	c.haveAnchor = false
}

func (c *Controller) fetch(op Op, cursor PageCursor) Cmd {
	if c.cancel != nil {
		c.cancel()
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancel = cancel

	room, token, loader := c.room, c.token, c.loader
	c.log.Debug("fetch", "room", room, "op", op, "cursor", cursor)
	return func() PageResult {
		defer cancel()
		page, err := loader.FetchPage(ctx, room, cursor)
		return PageResult{Room: room, Token: token, Op: op, Cursor: cursor, Page: page, Err: err}
	}
}

// Apply folds a fetch result into the window. It returns ErrStaleResponse
// for results that no longer match the controller, or a *FetchError when
// the request failed; in both cases the window is unchanged.
func (c *Controller) Apply(res PageResult) error {
	if res.Room != c.room || res.Token != c.token || c.state != loadingFor(res.Op) {
		c.log.Debug("discarding stale page", "room", res.Room, "op", res.Op, "state", c.state)
		return ErrStaleResponse
	}
	c.cancel = nil

	err := res.Err
	if err == nil {
		err = validatePage(res.Page)
	}
	if err != nil {
		ferr := &FetchError{Room: res.Room, Op: res.Op, Err: err}
		if errors.Is(err, ErrMalformedPage) {
			c.log.Warn("rejected history page", "room", res.Room, "op", res.Op, "error", err)
		} else {
			c.log.Warn("history fetch failed", "room", res.Room, "op", res.Op, "error", err)
		}
		c.err = ferr
		c.failed = res.Op
		c.setState(Error)
		return ferr
	}

	switch res.Op {
	case OpInitial:
		c.applyInitial(res.Page)
	case OpOlder:
		c.applyOlder(res.Cursor, res.Page)
	}
	return nil
}

func loadingFor(op Op) LoadState {
	if op == OpOlder {
		return LoadingOlder
	}
	return LoadingInitial
}

func (c *Controller) applyInitial(page Page) {
	// Live messages that arrived while loading are already in the window.
	c.window.Merge(page.Messages)
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore()

	c.view.Layout(c.window.Messages())
	c.view.ScrollToBottom()
	c.mounted = true
	c.log.Info("room loaded", "room", c.room, "messages", c.window.Len(), "has_more", c.hasMore)
	c.setState(Idle)
}

func (c *Controller) applyOlder(requested PageCursor, page Page) {
	// Measure again right before the merge; the user may have scrolled
	// since the request went out.
	anchor, ok := c.view.MeasureTopAnchor()
	if !ok {
		anchor, ok = c.anchor, c.haveAnchor
	}
	c.haveAnchor = false

	added := c.window.Merge(page.Messages)
	c.cursor = page.NextCursor
	c.hasMore = page.HasMore()
	if added == 0 && c.hasMore && page.NextCursor == requested {
		c.log.Warn("history cursor did not advance", "room", c.room, "cursor", requested)
		c.hasMore = false
	}

	if added > 0 {
		c.view.Layout(c.window.Messages())
		if ok {
			c.restore(anchor)
		}
	}
	c.log.Debug("older page merged", "room", c.room, "added", added, "has_more", c.hasMore)
	c.setState(Idle)
}

// ReceiveLive merges a pushed message. If the viewport was following the
// bottom it keeps following; otherwise the visible content stays put.
// Duplicates and messages without an ID are ignored and reported as false.
func (c *Controller) ReceiveLive(m Message) bool {
	if c.room == "" {
		return false
	}
	if m.ID == "" {
		c.log.Warn("live message without id", "room", c.room, "author", m.AuthorID)
		return false
	}
	if c.window.Contains(m.ID) {
		return false
	}

	if !c.mounted {
		// The initial apply lays out and scrolls for everything.
		return c.window.Insert(m)
	}

	follow := c.view.NearBottom()
	anchor, ok := Anchor{}, false
	if !follow {
		anchor, ok = c.view.MeasureTopAnchor()
	}

	c.window.Insert(m)
	c.view.Layout(c.window.Messages())
	switch {
	case follow:
		c.view.ScrollToBottom()
	case ok:
		c.restore(anchor)
	}
	return true
}

func (c *Controller) restore(a Anchor) {
	top, found := c.view.MessageOffset(a.MessageID)
	if !found {
		c.log.Debug("anchor lost after layout", "room", c.room, "id", a.MessageID)
		return
	}
	c.view.ScrollTo(top - a.Offset)
}

func (c *Controller) setState(s LoadState) {
	if c.state != s {
		c.log.Debug("state", "room", c.room, "from", c.state, "to", s)
	}
	c.state = s
}

// Room returns the current room ID, or "" after Teardown.
func (c *Controller) Room() string { return c.room }

// State returns the current load state.
func (c *Controller) State() LoadState { return c.state }

// Err returns the failure behind the Error state.
func (c *Controller) Err() error { return c.err }

// FailedOp returns which request failed while in Error.
func (c *Controller) FailedOp() Op { return c.failed }

// HasMore reports whether older history remains.
func (c *Controller) HasMore() bool { return c.hasMore }

// Mounted reports whether the initial page has been shown.
func (c *Controller) Mounted() bool { return c.mounted }

// Messages returns a copy of the window.
func (c *Controller) Messages() []Message { return c.window.Messages() }

// Len returns the number of messages in the window.
func (c *Controller) Len() int { return c.window.Len() }
