// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"sync"

	"github.com/jeranaias/pocketllm-tui/internal/admin"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// =============================================================================
// BACKGROUND STATE MESSAGES
// =============================================================================

// snapshotMsg carries the newest thread snapshot.
type snapshotMsg struct {
	Snapshot thread.Snapshot
}

// sessionsMsg carries the newest session list.
type sessionsMsg struct {
	Sessions []model.Session
}

// statsMsg carries one admin poll result.
type statsMsg struct {
	Update admin.Update
}

// identityMsg reports a credential change made by another process.
type identityMsg struct {
	Identity model.Identity
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// listedMsg is the result of fetching the session list.
type listedMsg struct {
	Err error
}

// createdMsg is the result of creating a session.
type createdMsg struct {
	Session model.Session
	Err     error
}

// loadedMsg is the result of opening a session.
type loadedMsg struct {
	SessionID string
	Err       error
}

// exportedMsg is the result of writing an export file.
type exportedMsg struct {
	Path string
	Err  error
}

// importedMsg is the result of importing a file.
type importedMsg struct {
	Result thread.ImportResult
	Err    error
}

// opSource tells reportOp whether the failing component already published
// its own notification for backend errors.
type opSource int

const (
	sourceThread opSource = iota
	sourceDirectory
	sourceAdmin
)

// opMsg is the result of a mutation whose success needs no extra handling.
type opMsg struct {
	Op     string
	Source opSource
	Err    error
}

// =============================================================================
// MAILBOX
// =============================================================================

// mailbox hands the newest value from background goroutines to the event
// loop. Values that arrive before the loop reads are coalesced; keep decides
// whether an incoming value replaces the pending one.
type mailbox[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	keep    func(pending, incoming T) bool
	signal  chan struct{}
}

func newMailbox[T any](keep func(pending, incoming T) bool) *mailbox[T] {
	return &mailbox[T]{keep: keep, signal: make(chan struct{}, 1)}
}

// put stores v and wakes the reader. It never blocks.
func (b *mailbox[T]) put(v T) {
	b.mu.Lock()
	if !b.pending || b.keep == nil || b.keep(b.value, v) {
		b.value = v
	}
	b.pending = true
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// take blocks until a value is pending or ctx is done.
func (b *mailbox[T]) take(ctx context.Context) (T, bool) {
	for {
		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-b.signal:
		}
		b.mu.Lock()
		if b.pending {
			v := b.value
			b.pending = false
			b.mu.Unlock()
			return v, true
		}
		b.mu.Unlock()
	}
}

// newerSnapshot keeps the snapshot with the higher version.
func newerSnapshot(pending, incoming thread.Snapshot) bool {
	return incoming.Version > pending.Version
}
