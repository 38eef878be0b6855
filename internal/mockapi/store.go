package mockapi

import (
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wethinkt/go-studyroom/internal/chat"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrBadCursor      = errors.New("unknown cursor")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrEmailTaken     = errors.New("email already registered")
)

// User is a registered account.
type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`

	passwordHash []byte
}

// RoomInfo summarizes a room for listings.
type RoomInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

type room struct {
	id   string
	name string
	msgs []chat.Message // ascending by SentAt
}

// Store keeps users and rooms in memory.
type Store struct {
	// HashCost is the bcrypt cost for new passwords.
	HashCost int

	mu      sync.RWMutex
	rooms   map[string]*room
	users   map[string]*User
	byEmail map[string]*User
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		HashCost: bcrypt.DefaultCost,
		rooms:    make(map[string]*room),
		users:    make(map[string]*User),
		byEmail:  make(map[string]*User),
		now:      time.Now,
	}
}

// AddUser registers an account.
func (s *Store) AddUser(email, password, nickname string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return User{}, ErrEmailTaken
	}
	u := &User{ID: uuid.NewString(), Email: email, Nickname: nickname, passwordHash: hash}
	s.users[u.ID] = u
	s.byEmail[email] = u
	return *u, nil
}

// Authenticate checks credentials.
func (s *Store) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return *u, nil
}

// User looks up an account by ID.
func (s *Store) User(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Users returns all accounts ordered by nickname.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out
}

// AddRoom creates a room; an existing room keeps its messages.
func (s *Store) AddRoom(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.name = name
		return
	}
	s.rooms[id] = &room{id: id, name: name}
}

// HasRoom reports whether the room exists.
func (s *Store) HasRoom(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok
}

// Rooms lists rooms ordered by ID.
func (s *Store) Rooms() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, RoomInfo{ID: r.id, Name: r.name, Messages: len(r.msgs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) author(userID string) chat.Author {
	if u, ok := s.users[userID]; ok {
		return chat.Author{ID: u.ID, Nickname: u.Nickname, ProfileImageURL: u.ProfileImageURL}
	}
	return chat.Author{ID: userID, Nickname: userID}
}

// Post appends a message stamped now. Timestamps within a room strictly
// increase so paging cursors stay unambiguous.
func (s *Store) Post(roomID, authorID, content string) (chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return chat.Message{}, ErrRoomNotFound
	}

	at := s.now().UTC()
	if n := len(r.msgs); n > 0 && !at.After(r.msgs[n-1].SentAt) {
		at = r.msgs[n-1].SentAt.Add(time.Millisecond)
	}
	m := chat.Message{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Content:  content,
		SentAt:   at,
		Author:   s.author(authorID),
	}
	r.msgs = append(r.msgs, m)
	return m, nil
}

// Insert places a message with its own timestamp, used for seeding.
func (s *Store) Insert(roomID string, m chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Author.ID == "" {
		m.Author = s.author(m.AuthorID)
	}
	i := sort.Search(len(r.msgs), func(i int) bool { return r.msgs[i].SentAt.After(m.SentAt) })
	r.msgs = slices.Insert(r.msgs, i, m)
	return nil
}

// Page returns up to size messages older than the message with ID before,
// oldest first, or the newest messages when before is empty. It reads one
// extra message to tell whether more history exists.
func (s *Store) Page(roomID, before string, size int) ([]chat.Message, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}

	end := len(r.msgs)
	if before != "" {
		end = slices.IndexFunc(r.msgs, func(m chat.Message) bool { return m.ID == before })
		if end < 0 {
			return nil, false, ErrBadCursor
		}
	}
	start := max(0, end-(size+1))
	page := slices.Clone(r.msgs[start:end])
	hasMore := len(page) > size
	if hasMore {
		page = page[1:]
	}
	return page, hasMore, nil
}

// Since returns the first limit messages sent after t, oldest first. more
// reports that later messages were left out.
func (s *Store) Since(roomID string, t time.Time, limit int) (msgs []chat.Message, more bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	i := sort.Search(len(r.msgs), func(i int) bool { return r.msgs[i].SentAt.After(t) })
	out := r.msgs[i:]
	if len(out) > limit {
		out, more = out[:limit], true
	}
	return slices.Clone(out), more, nil
}
