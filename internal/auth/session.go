// Package auth holds the signed-in user's tokens and talks to the
// upstream sign-in and token reissue endpoints.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/wethinkt/go-studyroom/internal/config"
)

// ErrNotSignedIn is returned when a session file is missing or empty.
var ErrNotSignedIn = errors.New("not signed in")

// Tokens is the credential pair issued at sign-in.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId,omitempty"`
}

// Profile is the public user record.
type Profile struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Session is the signed-in state shared by the history client and the live
// feed. Token reissue replaces the tokens in place, so every holder sees
// the new access token. It is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	tokens  Tokens
	profile Profile
	path    string // persisted on Update when set
}

type sessionFile struct {
	Tokens
	Profile Profile `json:"profile"`
}

// NewSession returns an in-memory session.
func NewSession(t Tokens, p Profile) *Session {
	return &Session{tokens: t, profile: p}
}

// DefaultPath returns ~/.studyroom/session.json.
func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// Load reads a session saved by Save. Later updates are written back to path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotSignedIn
	} else if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if f.AccessToken == "" {
		return nil, ErrNotSignedIn
	}
	return &Session{tokens: f.Tokens, profile: f.Profile, path: path}, nil
}

// SaveTo writes the session to path with owner-only permissions and keeps
// writing there on later updates.
func (s *Session) SaveTo(path string) error {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	return s.save()
}

func (s *Session) save() error {
	s.mu.RLock()
	path := s.path
	data, err := json.MarshalIndent(sessionFile{Tokens: s.tokens, Profile: s.profile}, "", "  ")
	s.mu.RUnlock()
	if err != nil || path == "" {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Tokens returns a copy of the current tokens.
func (s *Session) Tokens() Tokens {
	if s == nil {
		return Tokens{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// AccessToken returns the bearer token, or "" for a nil session.
func (s *Session) AccessToken() string {
	return s.Tokens().AccessToken
}

// UserID returns the signed-in user's ID.
func (s *Session) UserID() string {
	return s.Tokens().UserID
}

// Profile returns the signed-in user's profile.
func (s *Session) Profile() Profile {
	if s == nil {
		return Profile{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Update replaces the tokens. Empty fields keep their previous value.
func (s *Session) Update(t Tokens) error {
	s.mu.Lock()
	if t.AccessToken != "" {
		s.tokens.AccessToken = t.AccessToken
	}
	if t.RefreshToken != "" {
		s.tokens.RefreshToken = t.RefreshToken
	}
	if t.UserID != "" {
		s.tokens.UserID = t.UserID
	}
	s.mu.Unlock()
	return s.save()
}
