package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const requestTimeout = 10 * time.Second

// ErrReissueRejected means the refresh token is missing, invalid or expired.
// The user has to sign in again.
var ErrReissueRejected = errors.New("token reissue rejected")

// APIError is a non-2xx answer from the auth endpoints.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api returned %d", e.Status)
	}
	return fmt.Sprintf("auth api returned %d: %s", e.Status, e.Message)
}

// Client calls the upstream auth API.
type Client struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewClient creates a client for the API rooted at baseURL. A nil
// httpClient gets a default with a request timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// SignIn exchanges credentials for tokens and fetches the user's profile.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var tokens Tokens
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/sign-in", "", body, &tokens); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if tokens.UserID == "" {
		tokens.UserID = tokenSubject(tokens.AccessToken)
	}
	if tokens.UserID == "" {
		return nil, errors.New("sign in: response carries no user id")
	}

	s := NewSession(tokens, Profile{ID: tokens.UserID})
	profile, err := c.Profile(ctx, s, tokens.UserID)
	if err != nil {
		// Nickname is cosmetic; keep the session usable.
		tuilog.Log.Warn("fetch profile after sign in", "user", tokens.UserID, "error", err)
	} else {
		s.profile = profile
	}
	return s, nil
}

// Profile fetches a user's public profile.
func (c *Client) Profile(ctx context.Context, s *Session, userID string) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), s.AccessToken(), nil, &p); err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return p, nil
}

// Reissue trades the session's refresh token for a new access token and
// stores it in the session. Concurrent callers share one request.
func (c *Client) Reissue(ctx context.Context, s *Session) error {
	refresh := s.Tokens().RefreshToken
	if refresh == "" {
		return ErrReissueRejected
	}

	_, err, shared := c.group.Do(refresh, func() (any, error) {
		var tokens Tokens
		body := map[string]string{"refreshToken": refresh}
		if err := c.do(ctx, http.MethodPost, "/auth/token-reissue", "", body, &tokens); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: %s", ErrReissueRejected, apiErr.Message)
			}
			return nil, fmt.Errorf("reissue token: %w", err)
		}
		if tokens.AccessToken == "" {
			return nil, errors.New("reissue token: empty access token")
		}
		return nil, s.Update(tokens)
	})
	tuilog.Log.Debug("token reissue", "shared", shared, "ok", err == nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DecodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DecodeAPIError builds an APIError from an error response body of the
// form {"error": "...", "message": "..."}.
func DecodeAPIError(resp *http.Response) *APIError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// tokenSubject returns the "sub" claim of a JWT without verifying it, or
// "" if the token is not a JWT.
func tokenSubject(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ""
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ""
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if json.Unmarshal(payload, &claims) != nil {
		return ""
	}
	return claims.Sub
}
