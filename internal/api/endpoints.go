// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// =============================================================================
// AUTH
// =============================================================================

// Register creates an account and returns the issued credentials.
func (c *Client) Register(ctx context.Context, email, password string) (model.Identity, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

// Login authenticates and returns the issued credentials.
func (c *Client) Login(ctx context.Context, email, password string) (model.Identity, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (model.Identity, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return model.Identity{}, err
	}
	return model.Identity{Token: resp.Token, UserID: resp.UserID, Email: resp.Email}, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// ListSessions returns the user's sessions in backend order.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	var ws []wireSession
	path := "/sessions?user_id=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toModel())
	}
	return out, nil
}

// CreateSession creates a session. An empty title lets the backend choose.
func (c *Client) CreateSession(ctx context.Context, userID, title string) (model.Session, error) {
	var w wireSession
	if err := c.do(ctx, http.MethodPost, "/sessions", createSessionRequest{UserID: userID, Title: title}, &w); err != nil {
		return model.Session{}, err
	}
	return w.toModel(), nil
}

// GetSession returns a session and all of its messages.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	var w wireSession
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, &w); err != nil {
		return nil, err
	}
	return &SessionDetail{
		Session:  w.toModel(),
		Messages: messagesToModel(w.Messages, id),
	}, nil
}

// RenameSession sets a session's title.
func (c *Client) RenameSession(ctx context.Context, id, title string) (model.Session, error) {
	var w wireSession
	path := "/sessions/" + url.PathEscape(id) + "/title"
	if err := c.do(ctx, http.MethodPut, path, renameSessionRequest{Title: title}, &w); err != nil {
		return model.Session{}, err
	}
	return w.toModel(), nil
}

// DeleteSession deletes a session and, on the backend, its messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// CHAT AND MESSAGES
// =============================================================================

// Chat posts a prompt and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, sessionID, prompt string) (ChatReply, error) {
	var reply ChatReply
	err := c.do(ctx, http.MethodPost, "/chat", chatRequest{SessionID: sessionID, Prompt: prompt}, &reply)
	return reply, err
}

// Search runs a full-text query within one session.
func (c *Client) Search(ctx context.Context, sessionID, query string, limit int) ([]model.Message, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/search?" + q.Encode()

	var results searchResults
	if err := c.do(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return messagesToModel(results, sessionID), nil
}

// RateMessage sets a message's rating to up or down.
func (c *Client) RateMessage(ctx context.Context, id string, rating model.Rating) error {
	path := "/messages/" + url.PathEscape(id) + "/rate"
	return c.do(ctx, http.MethodPost, path, rateRequest{Rating: string(rating)}, nil)
}

// TogglePin flips a message's pinned flag and returns the backend's new value.
func (c *Client) TogglePin(ctx context.Context, id string) (bool, error) {
	var resp pinResponse
	path := "/messages/" + url.PathEscape(id) + "/pin"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return false, err
	}
	if resp.Pinned == nil {
		return false, &ParseError{Raw: "missing pinned field", Err: fmt.Errorf("pin response has no pinned value")}
	}
	return *resp.Pinned, nil
}

// DeleteMessage deletes one message.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(id)+"/delete", nil, nil)
}

// CreateMessage appends a message to a session without generating a reply.
func (c *Client) CreateMessage(ctx context.Context, sessionID, content string, role model.Role) (model.Message, error) {
	if role == "" {
		role = model.RoleUser
	}
	var w wireMessage
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, createMessageRequest{Content: content, Role: string(role)}, &w); err != nil {
		return model.Message{}, err
	}
	return w.toModel(sessionID), nil
}

// GetMessage fetches a single message.
func (c *Client) GetMessage(ctx context.Context, id string) (model.Message, error) {
	var w wireMessage
	if err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(id), nil, &w); err != nil {
		return model.Message{}, err
	}
	return w.toModel(""), nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Stats returns backend runtime statistics.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &stats)
	return stats, err
}

// ClearCache empties the backend response cache.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/cache/clear", nil, nil)
}

// Health returns the backend health status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
