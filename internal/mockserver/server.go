// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

var (
	errEmailTaken     = errors.New("email already registered")
	errBadCredentials = errors.New("invalid credentials")
)

// =============================================================================
// SERVER
// =============================================================================

// Options configures a Server.
type Options struct {
	// RequireAuth rejects requests without a valid bearer token, except for
	// /health and /auth/*.
	RequireAuth bool

	// Latency is added before every API response.
	Latency time.Duration

	// HashCost is the bcrypt cost. Zero uses bcrypt.MinCost.
	HashCost int
}

// Server is an in-memory implementation of the PocketLLM REST API.
type Server struct {
	opts    Options
	store   *store
	started time.Time

	statsMu      sync.Mutex
	requests     int64
	totalLatency time.Duration
	hits         int64
	misses       int64
	tokens       int64
}

// New creates a Server with empty data.
func New(opts Options) *Server {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.MinCost
	}
	return &Server{
		opts:    opts,
		store:   newStore(opts.HashCost),
		started: time.Now(),
	}
}

// Handler returns the router serving /api/v1.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logging.Logger().Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(s.measure)

		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/chat", s.handleChat)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions/{sessionID}", s.handleGetSession)
			r.Put("/sessions/{sessionID}/title", s.handleRenameSession)
			r.Delete("/sessions/{sessionID}", s.handleDeleteSession)
			r.Get("/sessions/{sessionID}/messages", s.handleListMessages)
			r.Post("/sessions/{sessionID}/messages", s.handleCreateMessage)
			r.Get("/sessions/{sessionID}/search", s.handleSearch)

			r.Get("/messages/{messageID}", s.handleGetMessage)
			r.Post("/messages/{messageID}/rate", s.handleRate)
			r.Post("/messages/{messageID}/pin", s.handlePin)
			r.Post("/messages/{messageID}/delete", s.handleDeleteMessage)

			r.Get("/admin/stats", s.handleStats)
			r.Post("/admin/cache/clear", s.handleClearCache)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled. If ready is
// non-nil it receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}
	logging.Logger().Info("mock server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if s.opts.Latency > 0 {
			select {
			case <-time.After(s.opts.Latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)

		s.statsMu.Lock()
		s.requests++
		s.totalLatency += time.Since(start)
		s.statsMu.Unlock()
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.RequireAuth {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if _, valid := s.store.userForToken(token); !valid {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

type messageJSON struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Rating    *string `json:"rating"`
	Pinned    bool    `json:"pinned"`
	CreatedAt string  `json:"created_at"`
}

type sessionJSON struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	MessageCount int           `json:"message_count"`
	Messages     []messageJSON `json:"messages,omitempty"`
}

func toMessageJSON(m messageRecord) messageJSON {
	out := messageJSON{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		Pinned:    m.Pinned,
		CreatedAt: m.CreatedAt.Format(wireTimeLayout),
	}
	if m.Rating != "" {
		r := m.Rating
		out.Rating = &r
	}
	return out
}

func toMessagesJSON(msgs []messageRecord) []messageJSON {
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageJSON(m))
	}
	return out
}

func toSessionJSON(rec sessionRecord, count int) sessionJSON {
	return sessionJSON{
		ID:           rec.ID,
		Title:        rec.Title,
		CreatedAt:    rec.CreatedAt.Format(wireTimeLayout),
		UpdatedAt:    rec.UpdatedAt.Format(wireTimeLayout),
		MessageCount: count,
	}
}

func respondWithError(w http.ResponseWriter, code int, detail string) {
	respondWithJSON(w, code, map[string]string{"detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Invalid request payload")
		return false
	}
	return true
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	if err := model.ValidateStruct(req); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	u, token, err := s.store.register(req.Email, req.Password)
	switch {
	case errors.Is(err, errEmailTaken):
		respondWithError(w, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": u.ID, "email": u.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	u, token, err := s.store.login(req.Email, req.Password)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": u.ID, "email": u.Email})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Prompt    string `json:"prompt"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "prompt must not be empty")
		return
	}
	reply, cached, ok := s.store.chat(req.SessionID, req.Prompt)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}

	s.statsMu.Lock()
	if cached {
		s.hits++
	} else {
		s.misses++
		s.tokens += int64(len(strings.Fields(reply.Content)))
	}
	s.statsMu.Unlock()

	respondWithJSON(w, http.StatusOK, map[string]any{
		"message_id": reply.ID,
		"content":    reply.Content,
		"cached":     cached,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}
	recs := s.store.listSessions(userID)
	out := make([]sessionJSON, 0, len(recs))
	for _, rec := range recs {
		_, msgs, _ := s.store.session(rec.ID)
		out = append(out, toSessionJSON(rec, len(msgs)))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string  `json:"user_id"`
		Title  *string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "user_id is required")
		return
	}
	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	rec := s.store.createSession(req.UserID, title)
	respondWithJSON(w, http.StatusOK, toSessionJSON(rec, 0))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, msgs, ok := s.store.session(chi.URLParam(r, "sessionID"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	out := toSessionJSON(rec, len(msgs))
	out.Messages = toMessagesJSON(msgs)
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "title must not be empty")
		return
	}
	rec, ok := s.store.renameSession(chi.URLParam(r, "sessionID"), title)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	_, msgs, _ := s.store.session(rec.ID)
	respondWithJSON(w, http.StatusOK, toSessionJSON(rec, len(msgs)))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.store.deleteSession(id) {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	_, msgs, ok := s.store.session(chi.URLParam(r, "sessionID"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, toMessagesJSON(msgs))
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Role    string `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = string(model.RoleUser)
	}
	if !model.Role(req.Role).Valid() {
		respondWithError(w, http.StatusUnprocessableEntity, "role must be user or assistant")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}
	m, ok := s.store.addMessage(chi.URLParam(r, "sessionID"), req.Role, req.Content)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondWithJSON(w, http.StatusOK, toMessageJSON(m))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, _, ok := s.store.session(sessionID); !ok {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}
	results := s.store.search(sessionID, r.URL.Query().Get("q"), limit)
	respondWithJSON(w, http.StatusOK, map[string]any{"results": toMessagesJSON(results)})
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	m, ok := s.store.message(chi.URLParam(r, "messageID"))
	if !ok {
		respondWithError(w, http.StatusNotFound, "Message not found")
		return
	}
	respondWithJSON(w, http.StatusOK, toMessageJSON(m))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating string `json:"rating"`
	}
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "messageID")
	if _, ok := s.store.message(id); !ok {
		respondWithError(w, http.StatusNotFound, "Message not found")
		return
	}
	if req.Rating != string(model.RatingUp) && req.Rating != string(model.RatingDown) {
		respondWithError(w, http.StatusBadRequest, "Invalid rating value")
		return
	}
	m, _ := s.store.updateMessage(id, func(m *messageRecord) { m.Rating = req.Rating })
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "rated", "rating": m.Rating})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	m, ok := s.store.updateMessage(chi.URLParam(r, "messageID"), func(m *messageRecord) { m.Pinned = !m.Pinned })
	if !ok {
		respondWithError(w, http.StatusNotFound, "Message not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"status": "toggled", "pinned": m.Pinned})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "messageID")
	if !s.store.deleteMessage(id) {
		respondWithError(w, http.StatusNotFound, "Message not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, s.Stats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	n := s.store.clearCache()
	respondWithJSON(w, http.StatusOK, map[string]any{"status": "cleared", "entries": n})
}

// Stats reports request and cache counters in the /admin/stats shape.
func (s *Server) Stats() model.Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	stats := model.Stats{
		UptimeSeconds:        time.Since(s.started).Seconds(),
		TotalRequests:        s.requests,
		CacheHits:            s.hits,
		CacheMisses:          s.misses,
		TotalTokensGenerated: s.tokens,
		ModelLoaded:          false,
		ModelPath:            "stub",
	}
	if s.requests > 0 {
		stats.AvgLatencyMs = float64(s.totalLatency.Milliseconds()) / float64(s.requests)
	}
	if total := s.hits + s.misses; total > 0 {
		stats.CacheHitRate = float64(s.hits) / float64(total)
	}
	return stats
}
