// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread owns the message list of the session being viewed.
//
// A Controller loads a session, sends prompts with an optimistic user
// message, rates, pins and deletes messages, runs backend searches and
// computes the filtered projection the chat pane shows. It also clears,
// exports and imports whole sessions.
//
// State is guarded by a mutex that is never held across a backend call.
// Every request is tagged with the session id and load generation current
// when it was issued; a response whose tag no longer matches, or that
// arrives after Close, is dropped and the call returns model.ErrStale.
//
// # Key Types
//
//   - Controller: per-session message state and operations
//   - Snapshot: immutable copy of the state delivered to observers
//   - Backend: the REST operations the Controller needs
//   - BulkError: per-message failures of ClearSession
//   - ImportResult: summary of an Import
//
// # Usage
//
//	ctl := thread.New(client, thread.Options{Bus: bus, SearchLimit: 20})
//	ctl.OnChange(func(s thread.Snapshot) { program.Send(s) })
//
//	if err := ctl.Load(ctx, sessionID); err != nil {
//	    // banner is already set on the snapshot
//	}
//	err := ctl.Send(ctx, "hello")
//	err = ctl.Rate(ctx, msgID, model.RatingUp)
//	err = ctl.Search(ctx, "hello")
//	view := ctl.View()
package thread
