// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

// ItemError is the failure of one message in a bulk operation.
type ItemError struct {
	ID  string
	Err error
}

// BulkError lists the messages a bulk operation could not process.
type BulkError struct {
	Op       string
	Total    int
	Failures []ItemError
}

// Error implements the error interface.
func (e *BulkError) Error() string {
	if len(e.Failures) == 0 {
		return e.Op + ": no failures"
	}
	return fmt.Sprintf("%s: %d of %d failed: %v", e.Op, len(e.Failures), e.Total, e.Failures[0].Err)
}

// Unwrap returns every per-message error.
func (e *BulkError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// FailedIDs returns the ids that were not processed.
func (e *BulkError) FailedIDs() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.ID
	}
	return ids
}

// =============================================================================
// CLEAR
// =============================================================================

// ClearSession deletes every message of the loaded session after confirm
// approves. Deletes run with bounded concurrency and are paced by a token
// bucket. Only confirmed deletions are removed locally; unsaved optimistic
// messages are dropped as well. Partial failure returns a *BulkError.
func (c *Controller) ClearSession(ctx context.Context, confirm session.Confirmer) error {
	t, err := c.begin()
	if err != nil {
		return err
	}

	c.mu.Lock()
	var ids []string
	pending := 0
	for _, m := range c.messages {
		if model.IsTemporary(m.ID) {
			pending++
			continue
		}
		ids = append(ids, m.ID)
	}
	c.mu.Unlock()

	if len(ids)+pending == 0 {
		return nil
	}
	if confirm == nil {
		return model.ErrCancelled
	}
	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Delete all %d messages in this session?", len(ids)+pending))
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrCancelled
	}

	deleted, failures := c.deleteAll(ctx, ids)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	gone := make(map[string]bool, len(deleted)+pending)
	for _, id := range deleted {
		gone[id] = true
	}
	for _, m := range c.messages {
		if model.IsTemporary(m.ID) {
			gone[m.ID] = true
		}
	}
	c.removeLocked(gone)
	c.commitLocked()

	if len(failures) > 0 {
		c.opts.Bus.Error(fmt.Sprintf("Failed to delete %d of %d messages", len(failures), len(ids)))
		return &BulkError{Op: "clear session", Total: len(ids), Failures: failures}
	}
	c.opts.Bus.Success("Session cleared")
	return nil
}

// deleteAll issues one delete per id and returns the ids that succeeded in
// input order along with the failures.
func (c *Controller) deleteAll(ctx context.Context, ids []string) ([]string, []ItemError) {
	limiter := rate.NewLimiter(rate.Limit(c.opts.BulkRatePerSecond), c.opts.BulkConcurrency)
	ok := make([]bool, len(ids))
	errs := make([]error, len(ids))

	var g errgroup.Group
	g.SetLimit(c.opts.BulkConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				errs[i] = err
				return nil
			}
			if err := c.backend.DeleteMessage(ctx, id); err != nil {
				errs[i] = err
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	var deleted []string
	var failures []ItemError
	for i, id := range ids {
		if ok[i] {
			deleted = append(deleted, id)
		} else {
			failures = append(failures, ItemError{ID: id, Err: errs[i]})
		}
	}
	return deleted, failures
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportOptions controls Import.
type ImportOptions struct {
	// Clear deletes the existing messages first. Confirm must approve.
	Clear   bool
	Confirm session.Confirmer

	// RestoreFlags re-applies each message's rating and pin after it is
	// created.
	RestoreFlags bool
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Total    int
	Imported int
	Failed   int
	Errors   []error

	// ClearErr is the partial failure of the preceding clear, if any.
	ClearErr error
}

// String renders a one-line summary.
func (r ImportResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported %d of %d messages", r.Imported, r.Total)
	if r.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", r.Failed)
	}
	return b.String()
}

// Import recreates the messages of doc in the loaded session, one at a time
// in document order, then reloads the session so local ids match the
// backend. Per-message failures are logged and counted, not fatal.
func (c *Controller) Import(ctx context.Context, doc *export.Document, opts ImportOptions) (ImportResult, error) {
	if doc == nil {
		return ImportResult{}, &model.FormatError{Reason: "empty document"}
	}
	if err := doc.Validate(); err != nil {
		return ImportResult{}, err
	}
	t, err := c.begin()
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportResult{Total: len(doc.Messages)}
	log := logging.FromContext(ctx).With("session_id", t.sessionID)

	if opts.Clear {
		err := c.ClearSession(ctx, opts.Confirm)
		var bulk *BulkError
		switch {
		case err == nil:
		case errors.As(err, &bulk):
			result.ClearErr = err
		default:
			return result, err
		}
	}

	for i, m := range doc.Messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !c.stillCurrent(t) {
			return result, model.ErrStale
		}
		created, err := c.backend.CreateMessage(ctx, t.sessionID, m.Content, m.Role)
		if err != nil {
			log.Warn("import message failed", "index", i, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("message %d: %w", i+1, err))
			continue
		}
		result.Imported++
		if opts.RestoreFlags {
			c.restoreFlags(ctx, created.ID, m, log)
		}
	}

	if err := c.Load(ctx, t.sessionID); err != nil {
		return result, err
	}
	if result.Failed > 0 {
		c.opts.Bus.Warning(result.String())
	} else {
		c.opts.Bus.Success(result.String())
	}
	return result, nil
}

func (c *Controller) stillCurrent(t tag) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validLocked(t)
}

func (c *Controller) restoreFlags(ctx context.Context, id string, m export.DocMessage, log *slog.Logger) {
	if id == "" {
		return
	}
	if m.Rating == model.RatingUp || m.Rating == model.RatingDown {
		if err := c.backend.RateMessage(ctx, id, m.Rating); err != nil {
			log.Warn("restore rating failed", "message_id", id, "error", err)
		}
	}
	if m.Pinned {
		if _, err := c.backend.TogglePin(ctx, id); err != nil {
			log.Warn("restore pin failed", "message_id", id, "error", err)
		}
	}
}
