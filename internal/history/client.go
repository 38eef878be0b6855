// Package history loads pages of room history from the upstream REST API.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wethinkt/go-studyroom/internal/auth"
	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const (
	maxRetries     = 2
	initialBackoff = 500 * time.Millisecond
	fetchTimeout   = 15 * time.Second

	DefaultPageSize = 30
)

// StatusError is a non-2xx response from the history endpoint.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("history api returned %d", e.Status)
	}
	return fmt.Sprintf("history api returned %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed if repeated.
func (e *StatusError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Options configures a Client.
type Options struct {
	PageSize   int
	HTTPClient *http.Client
	// Auth enables one token reissue and retry after a 401.
	Auth   *auth.Client
	Logger *tuilog.Logger
}

// Client implements chat.HistoryLoader over HTTP.
type Client struct {
	baseURL  string
	session  *auth.Session
	auth     *auth.Client
	client   *http.Client
	pageSize int
	log      *tuilog.Logger
}

var _ chat.HistoryLoader = (*Client)(nil)

// New creates a client for the API rooted at baseURL. session may be nil
// for anonymous access.
func New(baseURL string, session *auth.Session, opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		session:  session,
		auth:     opts.Auth,
		client:   opts.HTTPClient,
		pageSize: opts.PageSize,
		log:      opts.Logger,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: fetchTimeout}
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.log == nil {
		c.log = tuilog.Log
	}
	return c
}

type pageResponse struct {
	Messages   []chat.Message `json:"messages"`
	NextCursor string         `json:"nextCursor"`
	HasNext    *bool          `json:"hasNext,omitempty"`
}

// FetchPage returns the page before cursor, or the newest page for an
// empty cursor. Messages come back oldest first.
func (c *Client) FetchPage(ctx context.Context, roomID string, cursor chat.PageCursor) (chat.Page, error) {
	defer c.log.Timed("fetch page " + roomID)()

	q := url.Values{}
	q.Set("size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("cursor", string(cursor))
	}
	endpoint := fmt.Sprintf("%s/chat-rooms/%s/messages?%s", c.baseURL, url.PathEscape(roomID), q.Encode())

	var (
		resp     pageResponse
		lastErr  error
		reissued bool
	)
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 && lastErr != nil && !reissued {
			c.log.Debug("Retrying history fetch", "room", roomID, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return chat.Page{}, ctx.Err()
			}
			backoff *= 2
		}
		reissued = false

		resp = pageResponse{}
		lastErr = c.get(ctx, endpoint, &resp)
		if lastErr == nil {
			return toPage(resp), nil
		}

		var se *StatusError
		switch {
		case errors.As(lastErr, &se) && se.Status == http.StatusUnauthorized:
			if c.auth == nil || c.session == nil || attempt > 0 {
				return chat.Page{}, lastErr
			}
			if err := c.auth.Reissue(ctx, c.session); err != nil {
				return chat.Page{}, fmt.Errorf("%w (reissue: %v)", lastErr, err)
			}
			c.log.Info("Access token reissued", "room", roomID)
			reissued = true
		case errors.As(lastErr, &se) && !se.Temporary():
			return chat.Page{}, lastErr
		case ctx.Err() != nil:
			return chat.Page{}, ctx.Err()
		}
	}
	return chat.Page{}, lastErr
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := auth.DecodeAPIError(resp)
		return &StatusError{Status: apiErr.Status, Message: apiErr.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Room is a chat room as listed by the API.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

// Rooms lists the rooms the session can open.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var resp struct {
		Rooms []Room `json:"rooms"`
	}
	err := c.get(ctx, c.baseURL+"/chat-rooms", &resp)

	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusUnauthorized && c.auth != nil && c.session != nil {
		if rerr := c.auth.Reissue(ctx, c.session); rerr != nil {
			return nil, fmt.Errorf("%w (reissue: %v)", err, rerr)
		}
		err = c.get(ctx, c.baseURL+"/chat-rooms", &resp)
	}
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return resp.Rooms, nil
}

func toPage(r pageResponse) chat.Page {
	msgs := make([]chat.Message, len(r.Messages))
	for i, m := range r.Messages {
		if m.AuthorID == "" {
			m.AuthorID = m.Author.ID
		}
		if m.Author.ID == "" {
			m.Author.ID = m.AuthorID
		}
		if m.ID == "" {
			m.ID = FallbackID(m)
		}
		msgs[i] = m
	}
	next := chat.PageCursor(r.NextCursor)
	if r.HasNext != nil && !*r.HasNext {
		next = ""
	}
	return chat.Page{Messages: msgs, NextCursor: next}
}

// FallbackID derives a stable ID for a message the backend sent without
// one, so redelivery of the same message still deduplicates.
func FallbackID(m chat.Message) string {
	return m.AuthorID + "@" + strconv.FormatInt(m.SentAt.UnixNano(), 10)
}

// Walk fetches pages from newest to oldest until history is exhausted or
// fn returns an error.
func (c *Client) Walk(ctx context.Context, roomID string, fn func(chat.Page) error) error {
	var cursor chat.PageCursor
	for {
		page, err := c.FetchPage(ctx, roomID, cursor)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if !page.HasMore() || page.NextCursor == cursor {
			return nil
		}
		cursor = page.NextCursor
	}
}
