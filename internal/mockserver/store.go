// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Session"

// wireTimeLayout mirrors the naive ISO timestamps the Python backend emits.
const wireTimeLayout = "2006-01-02T15:04:05.999999"

type user struct {
	ID           string
	Email        string
	PasswordHash []byte
}

type sessionRecord struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type messageRecord struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	Rating    string
	Pinned    bool
	CreatedAt time.Time
}

// store is the in-memory backing data. All methods are safe for concurrent use.
type store struct {
	mu sync.Mutex

	users    map[string]*user // by email
	tokens   map[string]string
	sessions map[string]*sessionRecord
	messages map[string]*messageRecord
	order    map[string][]string // session id -> message ids in insert order
	cache    map[string]string

	hashCost int
	last     time.Time
	now      func() time.Time
}

func newStore(hashCost int) *store {
	return &store{
		users:    make(map[string]*user),
		tokens:   make(map[string]string),
		sessions: make(map[string]*sessionRecord),
		messages: make(map[string]*messageRecord),
		order:    make(map[string][]string),
		cache:    make(map[string]string),
		hashCost: hashCost,
		now:      time.Now,
	}
}

// tickLocked returns a strictly increasing timestamp so that insert order
// and created_at order agree.
func (s *store) tickLocked() time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// =============================================================================
// USERS
// =============================================================================

func (s *store) register(email, password string) (*user, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		return nil, "", errEmailTaken
	}
	u := &user{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	s.users[key] = u
	return u, s.issueLocked(u.ID), nil
}

func (s *store) login(email, password string) (*user, string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, "", errBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, "", errBadCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return u, s.issueLocked(u.ID), nil
}

func (s *store) issueLocked(userID string) string {
	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *store) userForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[token]
	return id, ok
}

// =============================================================================
// SESSIONS
// =============================================================================

func (s *store) createSession(userID, title string) sessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(title) == "" {
		title = DefaultSessionTitle
	}
	now := s.tickLocked()
	rec := &sessionRecord{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	s.sessions[rec.ID] = rec
	return *rec
}

func (s *store) listSessions(userID string) []sessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sessionRecord
	for _, rec := range s.sessions {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *store) session(id string) (sessionRecord, []messageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return sessionRecord{}, nil, false
	}
	return *rec, s.messagesLocked(id), true
}

func (s *store) renameSession(id, title string) (sessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return sessionRecord{}, false
	}
	rec.Title = title
	rec.UpdatedAt = s.tickLocked()
	return *rec, true
}

func (s *store) deleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	for _, mid := range s.order[id] {
		delete(s.messages, mid)
	}
	delete(s.order, id)
	delete(s.sessions, id)
	prefix := id + "|"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	return true
}

// =============================================================================
// MESSAGES
// =============================================================================

func (s *store) messagesLocked(sessionID string) []messageRecord {
	ids := s.order[sessionID]
	out := make([]messageRecord, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.messages[id]; ok {
			out = append(out, *m)
		}
	}
	return out
}

func (s *store) addMessageLocked(sessionID, role, content string) messageRecord {
	m := &messageRecord{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: s.tickLocked(),
	}
	s.messages[m.ID] = m
	s.order[sessionID] = append(s.order[sessionID], m.ID)
	if rec, ok := s.sessions[sessionID]; ok {
		rec.UpdatedAt = m.CreatedAt
	}
	return *m
}

func (s *store) addMessage(sessionID, role, content string) (messageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return messageRecord{}, false
	}
	return s.addMessageLocked(sessionID, role, content), true
}

func (s *store) message(id string) (messageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return messageRecord{}, false
	}
	return *m, true
}

func (s *store) updateMessage(id string, fn func(*messageRecord)) (messageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return messageRecord{}, false
	}
	fn(m)
	return *m, true
}

func (s *store) deleteMessage(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return false
	}
	delete(s.messages, id)
	ids := s.order[m.SessionID]
	for i, mid := range ids {
		if mid == id {
			s.order[m.SessionID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true
}

// search returns messages of sessionID containing every term of query,
// case-insensitively, in created order.
func (s *store) search(sessionID, query string, limit int) []messageRecord {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []messageRecord
	for _, m := range s.messagesLocked(sessionID) {
		content := strings.ToLower(m.Content)
		match := true
		for _, term := range terms {
			if !strings.Contains(content, term) {
				match = false
				break
			}
		}
		if match {
			out = append(out, m)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// =============================================================================
// CHAT
// =============================================================================

// chat stores the prompt and a reply. A prompt already answered in the same
// session is served from the cache.
func (s *store) chat(sessionID, prompt string) (messageRecord, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return messageRecord{}, false, false
	}
	key := sessionID + "|" + strings.TrimSpace(prompt)
	reply, cached := s.cache[key]
	if !cached {
		reply = "Echo: " + prompt + " (This is a stub response)"
		s.cache[key] = reply
	}
	s.addMessageLocked(sessionID, "user", prompt)
	return s.addMessageLocked(sessionID, "assistant", reply), cached, true
}

func (s *store) clearCache() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache)
	s.cache = make(map[string]string)
	return n
}
