package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type tokenKind int

const (
	accessKind tokenKind = iota
	refreshKind
)

// TokenStore issues opaque access and refresh tokens.
type TokenStore struct {
	mu         sync.Mutex
	tokens     map[string]tokenEntry
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type tokenEntry struct {
	Kind      tokenKind
	UserID    string
	ExpiresAt time.Time
}

// NewTokenStore creates a token store. Zero TTLs take the defaults.
func NewTokenStore(accessTTL, refreshTTL time.Duration) *TokenStore {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenStore{
		tokens:     make(map[string]tokenEntry),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func newToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (ts *TokenStore) issue(kind tokenKind, userID string, ttl time.Duration) string {
	token := newToken()
	ts.mu.Lock()
	ts.tokens[token] = tokenEntry{Kind: kind, UserID: userID, ExpiresAt: ts.now().Add(ttl)}
	ts.mu.Unlock()
	return token
}

// IssuePair creates a fresh access/refresh pair for userID.
func (ts *TokenStore) IssuePair(userID string) (access, refresh string) {
	return ts.issue(accessKind, userID, ts.accessTTL), ts.issue(refreshKind, userID, ts.refreshTTL)
}

func (ts *TokenStore) lookup(token string, kind tokenKind) (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.tokens[token]
	if !ok || entry.Kind != kind {
		return "", false
	}
	if ts.now().After(entry.ExpiresAt) {
		delete(ts.tokens, token)
		return "", false
	}
	return entry.UserID, true
}

// Validate returns the user an access token belongs to.
func (ts *TokenStore) Validate(access string) (string, bool) {
	return ts.lookup(access, accessKind)
}

// Reissue returns a new access token for a valid refresh token.
func (ts *TokenStore) Reissue(refresh string) (string, bool) {
	userID, ok := ts.lookup(refresh, refreshKind)
	if !ok {
		return "", false
	}
	return ts.issue(accessKind, userID, ts.accessTTL), true
}

// Revoke invalidates a token.
func (ts *TokenStore) Revoke(token string) {
	ts.mu.Lock()
	delete(ts.tokens, token)
	ts.mu.Unlock()
}

// CleanExpired removes expired tokens and returns how many were removed.
func (ts *TokenStore) CleanExpired() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	removed := 0
	for token, entry := range ts.tokens {
		if now.After(entry.ExpiresAt) {
			delete(ts.tokens, token)
			removed++
		}
	}
	return removed
}
