// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
	"time"
)

// UntitledSession is shown for sessions without a title.
const UntitledSession = "Untitled"

// Session is a named conversation container.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count,omitempty"`
}

// DisplayTitle returns the title or UntitledSession when it is blank.
func (s Session) DisplayTitle() string {
	if strings.TrimSpace(s.Title) == "" {
		return UntitledSession
	}
	return s.Title
}

// SortSessions returns sessions newest first by CreatedAt. Ties fall back to
// UpdatedAt (newest first) and then id so the order is deterministic.
func SortSessions(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// Stats is the backend's /admin/stats payload.
type Stats struct {
	UptimeSeconds        float64 `json:"uptime_seconds"`
	TotalRequests        int64   `json:"total_requests"`
	AvgLatencyMs         float64 `json:"avg_latency_ms"`
	CacheHitRate         float64 `json:"cache_hit_rate"`
	CacheHits            int64   `json:"cache_hits"`
	CacheMisses          int64   `json:"cache_misses"`
	TotalTokensGenerated int64   `json:"total_tokens_generated"`
	ModelLoaded          bool    `json:"model_loaded"`
	ModelPath            string  `json:"model_path"`
}

// Uptime returns UptimeSeconds as a duration.
func (s Stats) Uptime() time.Duration {
	return time.Duration(s.UptimeSeconds * float64(time.Second))
}

// Identity is the signed-in user as persisted on the client.
type Identity struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// LoggedIn reports whether a token is present.
func (i Identity) LoggedIn() bool {
	return i.Token != ""
}
