// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for client-side rejections.
var (
	// ErrBusy indicates a send is already in flight on the controller.
	ErrBusy = errors.New("a message is already being sent")

	// ErrEmptyPrompt indicates the prompt was empty or whitespace-only.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrCancelled indicates the user declined a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrNotFound indicates an id that is not in local state.
	ErrNotFound = errors.New("not found")

	// ErrNoSession indicates an operation that needs a loaded session.
	ErrNoSession = errors.New("no session loaded")

	// ErrClosed indicates the controller was torn down.
	ErrClosed = errors.New("controller closed")

	// ErrStale indicates a response arrived after the session it was issued
	// for was replaced or closed, and was discarded.
	ErrStale = errors.New("response discarded: session changed")
)

// ValidationError reports input rejected locally before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FormatError reports a malformed import document.
type FormatError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import document: %s: %v", e.Reason, e.Err)
	}
	return "invalid import document: " + e.Reason
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// LoadError reports a failure loading a session's messages.
type LoadError struct {
	SessionID string
	Err       error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load session %s: %v", e.SessionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// FetchError reports a failure fetching the session list.
type FetchError struct {
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load sessions: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
