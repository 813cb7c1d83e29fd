// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is a portable snapshot of one session.
type Document struct {
	Title      string       `json:"title"`
	ExportedAt time.Time    `json:"exported_at"`
	SessionID  string       `json:"session_id,omitempty"`
	Messages   []DocMessage `json:"messages" validate:"dive"`
}

// DocMessage is one message in a Document.
type DocMessage struct {
	Role      model.Role   `json:"role" validate:"required,oneof=user assistant"`
	Content   string       `json:"content" validate:"required"`
	Timestamp time.Time    `json:"timestamp"`
	Rating    model.Rating `json:"rating,omitempty" validate:"omitempty,oneof=up down"`
	Pinned    bool         `json:"pinned,omitempty"`
}

// NewDocument builds a Document from a session's messages. Temporary
// messages are included; they are indistinguishable once exported.
func NewDocument(title, sessionID string, msgs []model.Message, now time.Time) *Document {
	doc := &Document{
		Title:      title,
		ExportedAt: now,
		SessionID:  sessionID,
		Messages:   make([]DocMessage, 0, len(msgs)),
	}
	for _, m := range msgs {
		doc.Messages = append(doc.Messages, DocMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
			Rating:    m.Rating,
			Pinned:    m.Pinned,
		})
	}
	return doc
}

// Validate checks that the document has a usable message list.
func (d *Document) Validate() error {
	if d.Messages == nil {
		return &model.FormatError{Reason: "missing messages list"}
	}
	if err := model.ValidateStruct(d); err != nil {
		return &model.FormatError{Reason: "bad message", Err: err}
	}
	return nil
}

// =============================================================================
// ENCODE / DECODE
// =============================================================================

// Encode renders doc as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("document is nil")
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses and validates an import document. Both an object with a
// "messages" list and a bare message array are accepted.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &model.FormatError{Reason: "document is empty"}
	}

	var doc Document
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &doc.Messages); err != nil {
			return nil, &model.FormatError{Reason: "malformed message array", Err: err}
		}
		if doc.Messages == nil {
			doc.Messages = []DocMessage{}
		}
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, &model.FormatError{Reason: "malformed JSON", Err: err}
		}
		raw, ok := probe["messages"]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, &model.FormatError{Reason: "missing messages list"}
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, &model.FormatError{Reason: "malformed document", Err: err}
		}
	default:
		return nil, &model.FormatError{Reason: "expected a JSON object or array"}
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
