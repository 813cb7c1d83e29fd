// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// timeLayouts are tried in order. The backend may omit the zone, in which
// case the time is taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Time is a timestamp that accepts the layouts the backend emits.
type Time struct {
	time.Time
}

// ParseTime parses a backend timestamp.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// wireRating accepts "up", "down", null, or anything else (treated as none).
type wireRating model.Rating

func (r *wireRating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*r = wireRating(model.RatingNone)
		return nil
	}
	switch model.Rating(s) {
	case model.RatingUp, model.RatingDown:
		*r = wireRating(s)
	default:
		*r = wireRating(model.RatingNone)
	}
	return nil
}

type wireMessage struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Rating    wireRating `json:"rating"`
	Pinned    bool       `json:"pinned"`
	CreatedAt Time       `json:"created_at"`
}

func (w wireMessage) toModel(sessionID string) model.Message {
	if w.SessionID != "" {
		sessionID = w.SessionID
	}
	return model.Message{
		ID:        w.ID,
		SessionID: sessionID,
		Role:      model.Role(w.Role),
		Content:   w.Content,
		Rating:    model.Rating(w.Rating),
		Pinned:    w.Pinned,
		CreatedAt: w.CreatedAt.Time,
	}
}

func messagesToModel(ws []wireMessage, sessionID string) []model.Message {
	out := make([]model.Message, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel(sessionID))
	}
	return out
}

type wireSession struct {
	ID           string        `json:"id"`
	Title        *string       `json:"title"`
	CreatedAt    Time          `json:"created_at"`
	UpdatedAt    Time          `json:"updated_at"`
	MessageCount int           `json:"message_count"`
	Messages     []wireMessage `json:"messages"`
}

func (w wireSession) toModel() model.Session {
	s := model.Session{
		ID:           w.ID,
		CreatedAt:    w.CreatedAt.Time,
		UpdatedAt:    w.UpdatedAt.Time,
		MessageCount: w.MessageCount,
	}
	if w.Title != nil {
		s.Title = *w.Title
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	if s.MessageCount == 0 && len(w.Messages) > 0 {
		s.MessageCount = len(w.Messages)
	}
	return s
}

// searchResults accepts either {"results": [...]} or a bare array.
type searchResults []wireMessage

func (r *searchResults) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []wireMessage
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	var wrapped struct {
		Results []wireMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*r = wrapped.Results
	return nil
}

// =============================================================================
// REQUEST AND RESPONSE BODIES
// =============================================================================

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// ChatReply is the backend's answer to a prompt.
type ChatReply struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Cached    bool   `json:"cached"`
}

type rateRequest struct {
	Rating string `json:"rating"`
}

type pinResponse struct {
	Pinned *bool `json:"pinned"`
}

type createMessageRequest struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// SessionDetail is a session together with its messages.
type SessionDetail struct {
	Session  model.Session
	Messages []model.Message
}
