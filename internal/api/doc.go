// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the REST client for the PocketLLM backend.
//
// Every call is a single request: the bearer token is attached when one is
// stored, bodies are JSON, and failures surface as one of three error types
// with a human-readable message. Nothing is retried automatically.
//
// # Key Types
//
//   - Client: HTTP client bound to a base URL and API prefix
//   - TokenSource: supplies the bearer token (usually the credential store)
//   - NetworkError: the request never produced a response
//   - HTTPError: the backend answered with a non-2xx status
//   - ParseError: the response body was not valid JSON
//
// # Usage
//
//	client := api.NewClient(cfg.Server.BaseURL).
//	    WithTimeout(cfg.Timeout()).
//	    WithTokenSource(store)
//
//	sessions, err := client.ListSessions(ctx, userID)
//	reply, err := client.Chat(ctx, sessionID, "Hello")
package api
