// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local credential store for pocketllm.
//
// Credentials are kept in a small SQLite key/value table so they survive
// restarts and are shared between the TUI and CLI invocations. The store holds
// no business logic.
//
// # Key Types
//
//   - Store: key/value access plus typed credential helpers
//
// # Usage
//
//	store, err := storage.Open(path)
//	defer store.Close()
//
//	err = store.SaveCredentials(model.Identity{Token: t, UserID: id, Email: e})
//	if store.IsLoggedIn() { ... }
//
// Watch for logins and logouts made by another process:
//
//	err = store.Watch(ctx, 200*time.Millisecond, func(id model.Identity) { ... })
//
// # Storage Location
//
// The database lives at ~/.pocketllm/client.db unless configured otherwise.
package storage
