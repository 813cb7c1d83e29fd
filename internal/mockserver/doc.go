// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver is an in-memory PocketLLM backend for development and
// tests.
//
// It serves the same routes under /api/v1 as the real backend, with the
// same response shapes and {"detail": ...} error bodies. Replies are stub
// echoes; a prompt repeated within one session is answered from a cache and
// flagged cached. Accounts use bcrypt password hashes and opaque bearer
// tokens.
//
// # Key Types
//
//   - Server: router, data and request counters
//   - Options: auth enforcement, artificial latency, hash cost
//
// # Usage
//
//	srv := mockserver.New(mockserver.Options{})
//	ts := httptest.NewServer(srv.Handler())
//	client := api.NewClient(ts.URL)
//
//	// or as a standalone process
//	err := srv.ListenAndServe(ctx, "127.0.0.1:8000", nil)
package mockserver
