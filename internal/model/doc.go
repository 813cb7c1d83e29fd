// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for sessions and messages.
//
// This package defines the domain types shared by the REST client, the
// session directory, the thread controller and the view layer, plus the
// client-side error types callers match with errors.As.
//
// # Key Types
//
//   - Session: a named conversation container owned by one user
//   - Message: one turn authored by the user or the assistant
//   - Role, Rating, Filter: enumerations with parse helpers
//   - ValidationError, FormatError, LoadError, FetchError: client errors
//
// # Usage
//
//	msgs := model.SortMessages(resp.Messages)
//	pinned := model.Project(msgs, model.FilterPinned)
package model
