package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
	"github.com/wethinkt/go-studyroom/internal/version"
)

// SignInRequest is the body of POST /auth/sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries issued tokens.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// MessagesResponse is one page of room history, oldest first.
type MessagesResponse struct {
	Messages   []chat.Message `json:"messages"`
	NextCursor string         `json:"nextCursor,omitempty"`
	HasNext    bool           `json:"hasNext"`
}

// PostMessageRequest is the body of POST /chat-rooms/{roomID}/messages.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Rooms   int    `json:"rooms"`
	Version string `json:"version,omitempty"`
}

// handleHealth returns liveness info.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Rooms:   len(s.store.Rooms()),
		Version: version.Get(),
	})
}

// handleSignIn exchanges credentials for a token pair.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "이메일 또는 비밀번호가 올바르지 않습니다.")
		return
	}

	access, refresh := s.tokens.IssuePair(user.ID)
	tuilog.Log.Info("User signed in", "user", user.ID)
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: access, RefreshToken: refresh, UserID: user.ID})
}

// handleTokenReissue trades a refresh token for a new access token.
func (s *Server) handleTokenReissue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.RefreshToken == "" {
		tokenReissuesTotal.WithLabelValues("missing").Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized", "리프레시 토큰이 없습니다.")
		return
	}

	access, ok := s.tokens.Reissue(req.RefreshToken)
	if !ok {
		tokenReissuesTotal.WithLabelValues("rejected").Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized", "리프레시 토큰이 유효하지 않거나 만료되었습니다.")
		return
	}
	tokenReissuesTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: access})
}

// handleGetUser returns a user's public profile.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := s.store.User(chi.URLParam(r, "userID"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleListRooms lists chat rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rooms": s.store.Rooms()})
}

// handleListMessages serves one page of history. The cursor is the ID of
// the oldest message the client already has.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	size := 30
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "validation_error", "size must be a positive integer")
			return
		}
		size = min(n, maxPageSize)
	}

	msgs, hasMore, err := s.store.Page(roomID, r.URL.Query().Get("cursor"), size)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Chat room not found")
		return
	case errors.Is(err, ErrBadCursor):
		writeError(w, http.StatusBadRequest, "invalid_cursor", "Unknown cursor")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	resp := MessagesResponse{Messages: msgs, HasNext: hasMore}
	if resp.Messages == nil {
		resp.Messages = []chat.Message{}
	}
	if hasMore && len(msgs) > 0 {
		resp.NextCursor = msgs[0].ID
	}
	pagesServedTotal.Inc()
	writeJSON(w, http.StatusOK, resp)
}

// handlePostMessage posts a message and fans it out to live subscribers.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Failed to parse request body")
		return
	}

	m, err := s.post(chi.URLParam(r, "roomID"), userFrom(r.Context()), req.Content, "rest")
	switch {
	case errors.Is(err, errThrottled):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "Sending too fast")
		return
	case errors.Is(err, ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "not_found", "Chat room not found")
		return
	case errors.Is(err, ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

var errThrottled = errors.New("rate limited")

// post stores a message from userID and publishes it to the room.
func (s *Server) post(roomID, userID, content, via string) (chat.Message, error) {
	if via != "chatter" && !s.limiter(userID).Allow() {
		sendThrottledTotal.Inc()
		return chat.Message{}, errThrottled
	}
	m, err := s.store.Post(roomID, userID, content)
	if err != nil {
		return chat.Message{}, err
	}
	messagesPostedTotal.WithLabelValues(via).Inc()
	s.pubsub.Publish(roomID, m)
	return m, nil
}
