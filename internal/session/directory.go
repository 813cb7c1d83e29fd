// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the subset of the REST client the Directory uses.
type Backend interface {
	ListSessions(ctx context.Context, userID string) ([]model.Session, error)
	CreateSession(ctx context.Context, userID, title string) (model.Session, error)
	RenameSession(ctx context.Context, id, title string) (model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Confirmer asks the user to approve a destructive operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt. Use it for pre-confirmed requests
// such as a --confirm flag.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Navigator moves the view away from a session that is being deleted.
type Navigator interface {
	NavigateAway(sessionID string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(sessionID string)

// NavigateAway implements Navigator.
func (f NavigatorFunc) NavigateAway(sessionID string) { f(sessionID) }

// =============================================================================
// DIRECTORY
// =============================================================================

// Directory tracks the user's sessions, newest first.
type Directory struct {
	mu sync.Mutex

	backend  Backend
	nav      Navigator
	userID   string
	sessions []model.Session
	active   string

	nextListener int
	titleChange  map[int]func(id, title string)
	listChange   map[int]func([]model.Session)
	now          func() time.Time
}

// NewDirectory creates a Directory for userID. nav may be nil.
func NewDirectory(backend Backend, userID string, nav Navigator) *Directory {
	return &Directory{
		backend:     backend,
		nav:         nav,
		userID:      userID,
		titleChange: make(map[int]func(id, title string)),
		listChange:  make(map[int]func([]model.Session)),
		now:         time.Now,
	}
}

// SetUserID switches the owning user and drops the cached list.
func (d *Directory) SetUserID(userID string) {
	d.mu.Lock()
	changed := d.userID != userID
	d.userID = userID
	if changed {
		d.sessions = nil
		d.active = ""
	}
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	if changed {
		d.emitList(snapshot)
	}
}

// SetNavigator replaces the navigator.
func (d *Directory) SetNavigator(nav Navigator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nav = nav
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// Sessions returns a copy of the current list.
func (d *Directory) Sessions() []model.Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Directory) snapshotLocked() []model.Session {
	out := make([]model.Session, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Get returns the session with id.
func (d *Directory) Get(id string) (model.Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := d.indexLocked(id); i >= 0 {
		return d.sessions[i], true
	}
	return model.Session{}, false
}

func (d *Directory) indexLocked(id string) int {
	for i := range d.sessions {
		if d.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active session id, or "".
func (d *Directory) Active() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// SetActive marks id as the active session. An empty id clears it.
func (d *Directory) SetActive(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = id
}

// =============================================================================
// CALLBACKS
// =============================================================================

// OnTitleChange registers fn to run after a successful rename.
func (d *Directory) OnTitleChange(fn func(id, title string)) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextListener
	d.nextListener++
	d.titleChange[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.titleChange, id)
	}
}

// OnChange registers fn to run after every change to the list.
func (d *Directory) OnChange(fn func([]model.Session)) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextListener
	d.nextListener++
	d.listChange[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listChange, id)
	}
}

func (d *Directory) emitList(snapshot []model.Session) {
	d.mu.Lock()
	fns := make([]func([]model.Session), 0, len(d.listChange))
	for _, id := range sortedKeys(d.listChange) {
		fns = append(fns, d.listChange[id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (d *Directory) emitTitle(id, title string) {
	d.mu.Lock()
	fns := make([]func(string, string), 0, len(d.titleChange))
	for _, k := range sortedKeys(d.titleChange) {
		fns = append(fns, d.titleChange[k])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(id, title)
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// =============================================================================
// OPERATIONS
// =============================================================================

// List fetches the user's sessions and replaces the local list. On failure the
// local list is unchanged and a *model.FetchError is returned. A response for
// a user replaced by SetUserID meanwhile is dropped with model.ErrStale.
func (d *Directory) List(ctx context.Context) ([]model.Session, error) {
	d.mu.Lock()
	userID := d.userID
	d.mu.Unlock()

	sessions, err := d.backend.ListSessions(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("list sessions failed", "error", err)
		return nil, &model.FetchError{Err: err}
	}
	sorted := model.SortSessions(sessions)

	d.mu.Lock()
	if d.userID != userID {
		d.mu.Unlock()
		return nil, model.ErrStale
	}
	d.sessions = sorted
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	d.emitList(snapshot)
	return snapshot, nil
}

// Create creates a session and inserts it into the local list. An empty
// title lets the backend pick its default.
func (d *Directory) Create(ctx context.Context, title string) (model.Session, error) {
	d.mu.Lock()
	userID := d.userID
	d.mu.Unlock()

	s, err := d.backend.CreateSession(ctx, userID, util.NormalizeText(title))
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = d.now()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}

	d.mu.Lock()
	if d.userID != userID {
		d.mu.Unlock()
		return model.Session{}, model.ErrStale
	}
	if i := d.indexLocked(s.ID); i >= 0 {
		d.sessions[i] = s
	} else {
		d.sessions = append(d.sessions, s)
	}
	d.sessions = model.SortSessions(d.sessions)
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	d.emitList(snapshot)
	return s, nil
}

// Rename sets a session's title. Blank titles are rejected before any
// network call. The list keeps its order; title-change callbacks run after
// the local patch.
func (d *Directory) Rename(ctx context.Context, id, title string) error {
	title = util.NormalizeText(title)
	if title == "" {
		return &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	updated, err := d.backend.RenameSession(ctx, id, title)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	if updated.Title != "" {
		title = updated.Title
	}

	d.mu.Lock()
	if i := d.indexLocked(id); i >= 0 {
		d.sessions[i].Title = title
		if !updated.UpdatedAt.IsZero() {
			d.sessions[i].UpdatedAt = updated.UpdatedAt
		}
	}
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	d.emitTitle(id, title)
	d.emitList(snapshot)
	return nil
}

// Delete asks confirm, deletes the session on the backend, then removes it
// locally. If it was the active session the navigator is told to move away
// before the session leaves the list.
func (d *Directory) Delete(ctx context.Context, id string, confirm Confirmer) error {
	title := id
	if s, ok := d.Get(id); ok {
		title = s.DisplayTitle()
	}
	if confirm == nil {
		return model.ErrCancelled
	}
	ok, err := confirm.Confirm(ctx, fmt.Sprintf("Delete session %q and all of its messages?", title))
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrCancelled
	}

	if err := d.backend.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	d.mu.Lock()
	wasActive := d.active == id
	nav := d.nav
	d.mu.Unlock()

	if wasActive {
		if nav != nil {
			nav.NavigateAway(id)
		}
		d.mu.Lock()
		if d.active == id {
			d.active = ""
		}
		d.mu.Unlock()
	}

	d.mu.Lock()
	if i := d.indexLocked(id); i >= 0 {
		d.sessions = append(d.sessions[:i], d.sessions[i+1:]...)
	}
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	d.emitList(snapshot)
	logging.FromContext(ctx).Info("session deleted", "session_id", id, "was_active", wasActive)
	return nil
}
