package mockapi

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wethinkt/go-studyroom/internal/chat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.HashCost = bcrypt.MinCost
	return s
}

// fillRoom inserts n messages m1..mn one second apart.
func fillRoom(t *testing.T, s *Store, roomID string, n int) {
	t.Helper()
	s.AddRoom(roomID, roomID)
	base := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		err := s.Insert(roomID, chat.Message{
			ID:       fmt.Sprintf("m%d", i),
			AuthorID: "u1",
			Content:  fmt.Sprintf("message %d", i),
			SentAt:   base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestStore_AuthenticateUser(t *testing.T) {
	s := newTestStore(t)
	u, err := s.AddUser("Kim@Example.com", "secret", "kim")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Authenticate("kim@example.com ", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("user id = %q, want %q", got.ID, u.ID)
	}

	if _, err := s.Authenticate("kim@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := s.Authenticate("nobody@example.com", "secret"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
	if _, err := s.AddUser("kim@example.com", "x", "kim2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email err = %v", err)
	}
}

func TestStore_PageWalksBackwards(t *testing.T) {
	s := newTestStore(t)
	fillRoom(t, s, "r1", 7)

	page, more, err := s.Page("r1", "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := msgIDs(page); fmt.Sprint(got) != "[m5 m6 m7]" || !more {
		t.Fatalf("newest page = %v more=%v", got, more)
	}

	page, more, _ = s.Page("r1", page[0].ID, 3)
	if got := msgIDs(page); fmt.Sprint(got) != "[m2 m3 m4]" || !more {
		t.Fatalf("second page = %v more=%v", got, more)
	}

	page, more, _ = s.Page("r1", page[0].ID, 3)
	if got := msgIDs(page); fmt.Sprint(got) != "[m1]" || more {
		t.Fatalf("last page = %v more=%v", got, more)
	}
}

func TestStore_PageExactMultiple(t *testing.T) {
	s := newTestStore(t)
	fillRoom(t, s, "r1", 6)

	page, more, _ := s.Page("r1", "m4", 3)
	if got := msgIDs(page); fmt.Sprint(got) != "[m1 m2 m3]" || more {
		t.Errorf("page = %v more=%v, want [m1 m2 m3] false", got, more)
	}
}

func TestStore_PageErrors(t *testing.T) {
	s := newTestStore(t)
	fillRoom(t, s, "r1", 2)

	if _, _, err := s.Page("missing", "", 10); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("missing room err = %v", err)
	}
	if _, _, err := s.Page("r1", "nope", 10); !errors.Is(err, ErrBadCursor) {
		t.Errorf("bad cursor err = %v", err)
	}
}

func TestStore_PostIncreasingTimestamps(t *testing.T) {
	s := newTestStore(t)
	s.AddRoom("r1", "r1")
	fixed := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	a, _ := s.Post("r1", "u1", "first")
	b, _ := s.Post("r1", "u1", "second")
	if !b.SentAt.After(a.SentAt) {
		t.Errorf("second SentAt %v not after %v", b.SentAt, a.SentAt)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids not unique: %q %q", a.ID, b.ID)
	}

	if _, err := s.Post("r1", "u1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank post err = %v", err)
	}
	if _, err := s.Post("nope", "u1", "hi"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("missing room err = %v", err)
	}
}

func TestStore_Since(t *testing.T) {
	s := newTestStore(t)
	fillRoom(t, s, "r1", 5)
	base := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.UTC)

	got, more, _ := s.Since("r1", base.Add(3*time.Second), 10)
	if fmt.Sprint(msgIDs(got)) != "[m4 m5]" || more {
		t.Errorf("Since = %v more=%v, want [m4 m5]", msgIDs(got), more)
	}
	// A limited backfill starts right after t so nothing is skipped
	// silently; more reports the rest.
	got, more, _ = s.Since("r1", base, 2)
	if fmt.Sprint(msgIDs(got)) != "[m1 m2]" || !more {
		t.Errorf("limited Since = %v more=%v, want [m1 m2] and more", msgIDs(got), more)
	}
}

func TestSeed(t *testing.T) {
	s := newTestStore(t)
	users, err := Seed(s, SeedOptions{Rooms: 2, PerRoom: 40, Seed: 7})
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != len(seedUsers) {
		t.Errorf("seeded %d users, want %d", len(users), len(seedUsers))
	}
	rooms := s.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(rooms))
	}
	for _, r := range rooms {
		if r.Messages != 40 {
			t.Errorf("room %s has %d messages, want 40", r.ID, r.Messages)
		}
		page, _, _ := s.Page(r.ID, "", 40)
		for i := 1; i < len(page); i++ {
			if page[i].SentAt.Before(page[i-1].SentAt) {
				t.Fatalf("room %s out of order at %d", r.ID, i)
			}
		}
		if page[0].Author.Nickname == "" {
			t.Errorf("seeded message has no author nickname")
		}
	}
	if _, err := s.Authenticate(seedUsers[0].email, SeedPassword); err != nil {
		t.Errorf("seeded user cannot sign in: %v", err)
	}
}

func msgIDs(msgs []chat.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
