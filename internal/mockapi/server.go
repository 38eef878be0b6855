// Package mockapi is an in-memory stand-in for the study platform backend:
// sign-in and token reissue, cursor-paged room history, message posting
// and a WebSocket live feed. It exists for local development and tests.
package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/time/rate"

	_ "github.com/wethinkt/go-studyroom/internal/mockapi/docs"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 7480

	defaultSendRate  = 2.0
	defaultSendBurst = 5
	maxPageSize      = 100
)

// Config configures a Server.
type Config struct {
	Host  string
	Port  int
	Quiet bool // disable request logging
	// AccessLog receives request log lines; nil means stdout.
	AccessLog io.Writer
	// AllowAnonymous lets requests without a token act as "guest".
	AllowAnonymous bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	// SendRate and SendBurst bound how fast one user may post.
	SendRate  float64
	SendBurst int
}

// Server is the mock backend HTTP server.
type Server struct {
	config    Config
	store     *Store
	tokens    *TokenStore
	pubsub    *RoomPubSub
	router    chi.Router
	startedAt time.Time

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewServer creates a server over store.
func NewServer(store *Store, cfg Config) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = defaultSendRate
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = defaultSendBurst
	}

	s := &Server{
		config:    cfg,
		store:     store,
		tokens:    NewTokenStore(cfg.AccessTTL, cfg.RefreshTTL),
		pubsub:    NewRoomPubSub(),
		startedAt: time.Now(),
		limiters:  make(map[string]*rate.Limiter),
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Tokens exposes the token store.
func (s *Server) Tokens() *TokenStore {
	return s.tokens
}

// setupRouter configures the HTTP routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metricsMiddleware)

	if !s.config.Quiet {
		out := s.config.AccessLog
		if out == nil {
			out = os.Stdout
		}
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  log.New(out, "", log.LstdFlags),
			NoColor: out != os.Stdout,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/sign-in", s.handleSignIn)
		r.Post("/auth/token-reissue", s.handleTokenReissue)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/users/{userID}", s.handleGetUser)
			r.Get("/chat-rooms", s.handleListRooms)
			r.Get("/chat-rooms/{roomID}/messages", s.handleListMessages)
			r.Post("/chat-rooms/{roomID}/messages", s.handlePostMessage)
			r.Get("/chat-rooms/{roomID}/ws", s.handleRoomWS)
		})
	})

	return r
}

// ListenAndServe starts the server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler: s.router,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	// Update port if auto-assigned
	if s.config.Port == 0 {
		s.config.Port = ln.Addr().(*net.TCPAddr).Port
	}

	go s.cleanExpiredTokens(ctx)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	tuilog.Log.Info("Mock API listening", "addr", s.Addr())
	fmt.Printf("Mock API running at http://%s/api (swagger: /swagger/index.html)\n", s.Addr())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Addr returns the server address string.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

func (s *Server) cleanExpiredTokens(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.tokens.CleanExpired(); removed > 0 {
				tuilog.Log.Info("Cleaned expired tokens", "removed", removed)
			}
		}
	}
}

func (s *Server) limiter(userID string) *rate.Limiter {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.config.SendRate), s.config.SendBurst)
		s.limiters[userID] = l
	}
	return l
}

type ctxKey struct{}

const guestID = "guest"

// requireAuth resolves the bearer token to a user ID.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			if s.config.AllowAnonymous {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, guestID)))
				return
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="studyroom"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
			return
		}

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
			return
		}
		userID, ok := s.tokens.Validate(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Access token expired or invalid")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	})
}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, msg string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: msg})
}
