package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/wethinkt/go-studyroom/internal/auth"
	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/feed"
	"github.com/wethinkt/go-studyroom/internal/history"
)

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	store *Store
}

func (e *testEnv) api() string { return e.ts.URL + "/api" }

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	store := newTestStore(t)
	if _, err := Seed(store, SeedOptions{Rooms: 1, PerRoom: 45, Seed: 1}); err != nil {
		t.Fatal(err)
	}
	if cfg.AccessLog == nil {
		cfg.Quiet = true
	}
	srv := NewServer(store, cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, store: store}
}

func (e *testEnv) signIn(t *testing.T) (*auth.Client, *auth.Session) {
	t.Helper()
	ac := auth.NewClient(e.api(), e.ts.Client())
	sess, err := ac.SignIn(context.Background(), "kim@studyroom.dev", SeedPassword)
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return ac, sess
}

func TestServer_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	env := newTestEnv(t, Config{AccessLog: &buf})

	resp, err := env.ts.Client().Get(env.api() + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if out := buf.String(); !strings.Contains(out, "GET") || !strings.Contains(out, "/api/health") {
		t.Errorf("access log = %q, want the health request", out)
	}
}

func TestServer_SignInLoadsProfile(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, sess := env.signIn(t)

	if sess.UserID() == "" {
		t.Fatal("session has no user id")
	}
	if got := sess.Profile().Nickname; got != "kim" {
		t.Errorf("nickname = %q, want kim", got)
	}
}

func TestServer_SignInRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t, Config{})
	ac := auth.NewClient(env.api(), env.ts.Client())
	if _, err := ac.SignIn(context.Background(), "kim@studyroom.dev", "nope"); err == nil {
		t.Fatal("expected sign in to fail")
	}
}

func TestServer_HistoryWalk(t *testing.T) {
	env := newTestEnv(t, Config{})
	ac, sess := env.signIn(t)
	hc := history.New(env.api(), sess, history.Options{PageSize: 20, Auth: ac, HTTPClient: env.ts.Client()})

	var pages int
	var all []chat.Message
	err := hc.Walk(context.Background(), "room-1", func(p chat.Page) error {
		pages++
		all = append(p.Messages, all...)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if len(all) != 45 {
		t.Fatalf("messages = %d, want 45", len(all))
	}
	seen := map[string]bool{}
	for i, m := range all {
		if seen[m.ID] {
			t.Fatalf("duplicate message %s", m.ID)
		}
		seen[m.ID] = true
		if i > 0 && m.SentAt.Before(all[i-1].SentAt) {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestServer_ReissuesRevokedAccessToken(t *testing.T) {
	env := newTestEnv(t, Config{})
	ac, sess := env.signIn(t)
	old := sess.AccessToken()
	env.srv.Tokens().Revoke(old)

	hc := history.New(env.api(), sess, history.Options{Auth: ac, HTTPClient: env.ts.Client()})
	page, err := hc.FetchPage(context.Background(), "room-1", "")
	if err != nil {
		t.Fatalf("FetchPage after revoke: %v", err)
	}
	if len(page.Messages) != history.DefaultPageSize {
		t.Errorf("page size = %d, want %d", len(page.Messages), history.DefaultPageSize)
	}
	if sess.AccessToken() == old {
		t.Error("session access token was not replaced")
	}
}

func TestServer_RequiresToken(t *testing.T) {
	env := newTestEnv(t, Config{})

	resp, err := env.ts.Client().Get(env.api() + "/chat-rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "unauthorized" {
		t.Errorf("error = %q, want unauthorized", body.Error)
	}
}

func TestServer_AllowAnonymous(t *testing.T) {
	env := newTestEnv(t, Config{AllowAnonymous: true})

	resp, err := env.ts.Client().Get(env.api() + "/chat-rooms/room-1/messages?size=5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body MessagesResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if len(body.Messages) != 5 || !body.HasNext || body.NextCursor != body.Messages[0].ID {
		t.Errorf("unexpected page: %d messages, hasNext=%v, cursor=%q", len(body.Messages), body.HasNext, body.NextCursor)
	}
}

func TestServer_ListMessagesValidation(t *testing.T) {
	env := newTestEnv(t, Config{AllowAnonymous: true})

	tests := []struct {
		path string
		want int
	}{
		{"/chat-rooms/room-1/messages?size=0", http.StatusBadRequest},
		{"/chat-rooms/room-1/messages?size=abc", http.StatusBadRequest},
		{"/chat-rooms/room-1/messages?cursor=missing", http.StatusBadRequest},
		{"/chat-rooms/nope/messages", http.StatusNotFound},
		{"/chat-rooms/room-1/messages?size=1000", http.StatusOK},
	}
	for _, tt := range tests {
		resp, err := env.ts.Client().Get(env.api() + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestServer_PostThrottled(t *testing.T) {
	env := newTestEnv(t, Config{AllowAnonymous: true, SendRate: 0.001, SendBurst: 2})

	post := func() int {
		resp, err := env.ts.Client().Post(env.api()+"/chat-rooms/room-1/messages", "application/json", strings.NewReader(`{"content":"hi"}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 2; i++ {
		if got := post(); got != http.StatusCreated {
			t.Fatalf("post %d status = %d, want 201", i, got)
		}
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Errorf("third post status = %d, want 429", got)
	}
}

func TestServer_LiveFeed(t *testing.T) {
	env := newTestEnv(t, Config{})
	ac, sess := env.signIn(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.api(), "http")
	conn := feed.Dial(ctx, wsURL, "room-1", feed.Options{Session: sess, Auth: ac})
	defer conn.Close()

	next := func(kind feed.EventKind) feed.Event {
		t.Helper()
		for {
			select {
			case ev, ok := <-conn.Events():
				if !ok {
					t.Fatalf("feed closed while waiting for %v", kind)
				}
				if ev.Kind == kind {
					return ev
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %v", kind)
			}
		}
	}

	next(feed.EventConnected)
	if err := conn.Send("hello from the socket"); err != nil {
		t.Fatal(err)
	}
	ev := next(feed.EventMessage)
	if ev.Message.Content != "hello from the socket" || ev.Message.AuthorID != sess.UserID() {
		t.Errorf("echo = %+v", ev.Message)
	}

	if _, err := env.srv.post("room-1", sess.UserID(), "posted elsewhere", "rest"); err != nil {
		t.Fatal(err)
	}
	ev = next(feed.EventMessage)
	if ev.Message.Content != "posted elsewhere" {
		t.Errorf("live message = %q", ev.Message.Content)
	}
	if ev.Message.Author.Nickname != "kim" {
		t.Errorf("author nickname = %q, want kim", ev.Message.Author.Nickname)
	}
}

func TestServer_LiveFeedResumeReportsGap(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, sess := env.signIn(t)
	for i := range wsBackfillLimit {
		if _, err := env.store.Post("room-1", sess.UserID(), fmt.Sprintf("missed %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	after := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	target := "ws" + strings.TrimPrefix(env.api(), "http") + "/chat-rooms/room-1/ws?after=" + after.Format(time.RFC3339Nano)
	conn, _, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + sess.AccessToken()}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.CloseNow()

	var first *chat.Message
	for n := 0; ; n++ {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("after %d frames: %v", n, err)
		}
		var f feed.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatal(err)
		}
		if f.Type == feed.FrameError {
			if f.Error != feed.ErrorMissedMessages {
				t.Errorf("error frame = %q, want %q", f.Error, feed.ErrorMissedMessages)
			}
			if n != wsBackfillLimit {
				t.Errorf("got %d backfill frames before the gap, want %d", n, wsBackfillLimit)
			}
			break
		}
		if first == nil {
			first = f.Message
		}
	}

	// The backfill starts at the oldest message after the resume point.
	page, _, _ := env.store.Page("room-1", "", 1000)
	if first == nil || first.ID != page[0].ID {
		t.Errorf("first backfilled = %+v, want %s", first, page[0].ID)
	}
}
