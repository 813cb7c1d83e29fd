// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// rawPreviewLen is how much of an unparseable body ParseError keeps.
const rawPreviewLen = 200

// NetworkError indicates the request failed before any response arrived.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response. Message is the response body text, or a
// generic status message when the body is empty.
type HTTPError struct {
	Status  int
	Message string
}

func newHTTPError(status int, body []byte) *HTTPError {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &HTTPError{Status: status, Message: msg}
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Detail returns the "detail" string of a JSON error body, or Message.
func (e *HTTPError) Detail() string {
	var body struct {
		Detail any `json:"detail"`
	}
	if json.Unmarshal([]byte(e.Message), &body) == nil {
		if s, ok := body.Detail.(string); ok && s != "" {
			return s
		}
	}
	return e.Message
}

// Describe returns a short message for err suitable for a notification.
func Describe(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Detail()
	}
	return err.Error()
}

// ParseError indicates a 2xx response whose body was not valid JSON.
type ParseError struct {
	Raw string
	Err error
}

func newParseError(body []byte, err error) *ParseError {
	raw := string(body)
	if len(raw) > rawPreviewLen {
		cut := rawPreviewLen
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut]
	}
	return &ParseError{Raw: raw, Err: err}
}

func (e *ParseError) Error() string {
	return "Failed to parse JSON. Raw response: " + e.Raw
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
