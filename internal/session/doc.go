// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session maintains the ordered list of the user's chat sessions.
//
// The Directory owns the sidebar's view of the backend: it lists, creates,
// renames and deletes sessions, and tracks which one is active. Navigation
// belongs to the caller; the Directory only asks a Navigator to move away
// from a session that is about to disappear.
//
// # Key Types
//
//   - Directory: session list plus the active session id
//   - Backend: the REST operations the Directory needs
//   - Confirmer: asks the user before destructive operations
//   - Navigator: moves the UI away from a deleted active session
//
// # Usage
//
//	dir := session.NewDirectory(client, userID, session.NavigatorFunc(func(id string) {
//	    controller.Close()
//	}))
//	dir.OnTitleChange(func(id, title string) { header.SetTitle(title) })
//
//	sessions, err := dir.List(ctx)
//	created, err := dir.Create(ctx, "")
//	err = dir.Rename(ctx, created.ID, "Trip planning")
//	err = dir.Delete(ctx, created.ID, session.AlwaysConfirm)
package session
