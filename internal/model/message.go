// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a role the backend accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// RATING TYPE
// =============================================================================

// Rating is the thumbs up/down feedback attached to a message.
type Rating string

const (
	RatingNone Rating = ""
	RatingUp   Rating = "up"
	RatingDown Rating = "down"
)

// ParseRating converts user input into a Rating. Only "up" and "down" can be
// sent to the backend; anything else is a ValidationError.
func ParseRating(s string) (Rating, error) {
	switch Rating(strings.ToLower(strings.TrimSpace(s))) {
	case RatingUp:
		return RatingUp, nil
	case RatingDown:
		return RatingDown, nil
	default:
		return RatingNone, &ValidationError{Field: "rating", Reason: fmt.Sprintf("must be %q or %q, got %q", RatingUp, RatingDown, s)}
	}
}

// Symbol returns a one-character badge for the rating.
func (r Rating) Symbol() string {
	switch r {
	case RatingUp:
		return "+"
	case RatingDown:
		return "-"
	default:
		return ""
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// TempIDPrefix marks ids generated locally for optimistic inserts.
const TempIDPrefix = "temp-user-"

// Message represents a single turn in a session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Rating    Rating    `json:"rating,omitempty"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`

	// Optimistic is set on locally synthesized messages the backend has not
	// confirmed. Such a message keeps its temporary id for its whole life.
	Optimistic bool `json:"-"`

	// Cached is set on assistant replies served from the backend cache.
	Cached bool `json:"-"`
}

// NewOptimisticMessage builds the local user message shown while a prompt is
// in flight.
func NewOptimisticMessage(sessionID, content string, now time.Time) Message {
	return Message{
		ID:         TempIDPrefix + uuid.NewString(),
		SessionID:  sessionID,
		Role:       RoleUser,
		Content:    content,
		CreatedAt:  now,
		Optimistic: true,
	}
}

// IsTemporary reports whether id was generated locally.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// IsRated reports whether the message carries a rating.
func (m Message) IsRated() bool {
	return m.Rating != RatingNone
}

// Preview returns a single-line preview of at most maxRunes characters.
func (m Message) Preview(maxRunes int) string {
	content := strings.Join(strings.Fields(m.Content), " ")
	runes := []rune(content)
	if maxRunes <= 3 || len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes-3]) + "..."
}

// SortMessages returns msgs ordered by ascending CreatedAt. The sort is
// stable so messages sharing a timestamp keep their arrival order.
func SortMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// IndexOf returns the position of the message with id, or -1.
func IndexOf(msgs []Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}
