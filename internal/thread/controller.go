// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the subset of the REST client the Controller uses.
type Backend interface {
	GetSession(ctx context.Context, id string) (*api.SessionDetail, error)
	Chat(ctx context.Context, sessionID, prompt string) (api.ChatReply, error)
	Search(ctx context.Context, sessionID, query string, limit int) ([]model.Message, error)
	RateMessage(ctx context.Context, id string, rating model.Rating) error
	TogglePin(ctx context.Context, id string) (bool, error)
	DeleteMessage(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, sessionID, content string, role model.Role) (model.Message, error)
}

// Default tuning values.
const (
	DefaultSearchLimit       = 20
	DefaultBulkConcurrency   = 4
	DefaultBulkRatePerSecond = 10.0
)

// Options configures a Controller. Zero values take the defaults.
type Options struct {
	SearchLimit       int
	BulkConcurrency   int
	BulkRatePerSecond float64

	// Bus receives error notifications for failed mutations. When nil the
	// Controller publishes to a private bus nobody listens to.
	Bus *notify.Bus

	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SearchLimit <= 0 {
		o.SearchLimit = DefaultSearchLimit
	}
	if o.BulkConcurrency <= 0 {
		o.BulkConcurrency = DefaultBulkConcurrency
	}
	if o.BulkRatePerSecond <= 0 {
		o.BulkRatePerSecond = DefaultBulkRatePerSecond
	}
	if o.Bus == nil {
		o.Bus = notify.NewBus()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// =============================================================================
// STATE
// =============================================================================

// SendState is the send state machine: idle -> sending -> idle.
type SendState int

const (
	StateIdle SendState = iota
	StateSending
)

// String returns the state name.
func (s SendState) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Snapshot is a copy of the Controller state. Version grows with every
// change, so a consumer receiving snapshots from several goroutines can
// drop older ones.
type Snapshot struct {
	Version   uint64
	SessionID string
	Title     string
	Messages  []model.Message
	View      []model.Message
	Filter    model.Filter
	Query     string
	State     SendState
	Loading   bool
	Banner    string
	CachedID  string
}

// Empty returns the text shown when View is empty.
func (s Snapshot) Empty() string {
	if s.Filter == model.FilterAll {
		return "No messages yet. Say something to start the chat."
	}
	return "No messages match your search."
}

// tag identifies the session and load generation a request was issued under.
type tag struct {
	sessionID string
	gen       uint64
}

// sendTag outlives reloads of the same session; only a session change,
// Unload or Close invalidates it.
type sendTag struct {
	sessionID string
	epoch     uint64
}

// Controller holds the message state of one session at a time.
type Controller struct {
	mu sync.Mutex

	backend Backend
	opts    Options

	sessionID string
	title     string
	gen       uint64
	epoch     uint64
	closed    bool
	version   uint64

	messages []model.Message
	results  []model.Message
	filter   model.Filter
	query    string
	state    SendState
	loading  bool
	banner   string
	cachedID string

	nextListener int
	listeners    map[int]func(Snapshot)
}

// New creates a Controller with no session loaded.
func New(backend Backend, opts Options) *Controller {
	return &Controller{
		backend:   backend,
		opts:      opts.withDefaults(),
		filter:    model.FilterAll,
		listeners: make(map[int]func(Snapshot)),
	}
}

// OnChange registers fn to receive a Snapshot after every state change.
func (c *Controller) OnChange(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SessionID returns the loaded session id, or "".
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetTitle updates the header title after a rename elsewhere. It is a no-op
// for sessions other than the loaded one.
func (c *Controller) SetTitle(sessionID, title string) {
	c.mu.Lock()
	if c.closed || sessionID != c.sessionID {
		c.mu.Unlock()
		return
	}
	c.title = title
	c.commitLocked()
}

// View returns the projection for the active filter.
func (c *Controller) View() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() []model.Message {
	if c.filter == model.FilterSearch {
		out := make([]model.Message, len(c.results))
		copy(out, c.results)
		return out
	}
	return model.Project(c.messages, c.filter)
}

func (c *Controller) snapshotLocked() Snapshot {
	msgs := make([]model.Message, len(c.messages))
	copy(msgs, c.messages)
	return Snapshot{
		Version:   c.version,
		SessionID: c.sessionID,
		Title:     c.title,
		Messages:  msgs,
		View:      c.viewLocked(),
		Filter:    c.filter,
		Query:     c.query,
		State:     c.state,
		Loading:   c.loading,
		Banner:    c.banner,
		CachedID:  c.cachedID,
	}
}

// commitLocked bumps the version, releases the lock and notifies observers.
func (c *Controller) commitLocked() {
	c.version++
	snap := c.snapshotLocked()
	keys := make([]int, 0, len(c.listeners))
	for k := range c.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(Snapshot), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, c.listeners[k])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) currentLocked() tag {
	return tag{sessionID: c.sessionID, gen: c.gen}
}

// validLocked reports whether a response issued under t may be applied.
func (c *Controller) validLocked(t tag) bool {
	return !c.closed && t == c.currentLocked()
}

func (c *Controller) sendValidLocked(t sendTag) bool {
	return !c.closed && t.sessionID == c.sessionID && t.epoch == c.epoch
}

// begin checks that a session is loaded and returns its tag.
func (c *Controller) begin() (tag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return tag{}, model.ErrClosed
	}
	if c.sessionID == "" {
		return tag{}, model.ErrNoSession
	}
	return c.currentLocked(), nil
}

// patchLocked applies fn to the message with id in both the full set and
// the search results.
func (c *Controller) patchLocked(id string, fn func(*model.Message)) {
	if i := model.IndexOf(c.messages, id); i >= 0 {
		fn(&c.messages[i])
	}
	if i := model.IndexOf(c.results, id); i >= 0 {
		fn(&c.results[i])
	}
}

func (c *Controller) removeLocked(ids map[string]bool) {
	c.messages = without(c.messages, ids)
	c.results = without(c.results, ids)
	if ids[c.cachedID] {
		c.cachedID = ""
	}
}

func without(msgs []model.Message, ids map[string]bool) []model.Message {
	if len(msgs) == 0 {
		return msgs
	}
	out := msgs[:0:0]
	for _, m := range msgs {
		if !ids[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Load replaces the state with the messages of sessionID. Filter and search
// are reset. On failure the list is emptied, the banner is set until the
// next successful load, and a *model.LoadError is returned.
func (c *Controller) Load(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.ErrClosed
	}
	c.gen++
	switching := sessionID != c.sessionID
	c.sessionID = sessionID
	c.loading = true
	if switching {
		c.epoch++
		c.state = StateIdle
		c.title = ""
		c.messages = nil
		c.results = nil
		c.cachedID = ""
	}
	t := c.currentLocked()
	c.commitLocked()

	detail, err := c.backend.GetSession(ctx, sessionID)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	c.loading = false
	c.filter = model.FilterAll
	c.query = ""
	c.results = nil
	if err != nil {
		loadErr := &model.LoadError{SessionID: sessionID, Err: err}
		c.messages = c.pendingLocked()
		c.cachedID = ""
		c.banner = loadErr.Error()
		c.commitLocked()
		logging.FromContext(ctx).Warn("load session failed", "session_id", sessionID, "error", err)
		return loadErr
	}
	pending := c.pendingLocked()
	c.messages = append(model.SortMessages(detail.Messages), pending...)
	c.title = detail.Session.Title
	c.banner = ""
	if model.IndexOf(c.messages, c.cachedID) < 0 {
		c.cachedID = ""
	}
	c.commitLocked()
	return nil
}

// pendingLocked returns the optimistic messages of a send still in flight.
func (c *Controller) pendingLocked() []model.Message {
	if c.state != StateSending {
		return nil
	}
	var out []model.Message
	for _, m := range c.messages {
		if model.IsTemporary(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// Reload fetches the loaded session again. A send in flight stays in flight.
func (c *Controller) Reload(ctx context.Context) error {
	t, err := c.begin()
	if err != nil {
		return err
	}
	return c.Load(ctx, t.sessionID)
}

// Close stops the Controller. Responses still in flight are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
	c.epoch++
	c.state = StateIdle
}

// Unload detaches the Controller from its session without closing it.
// Responses for the old session are dropped; Load may be called again.
func (c *Controller) Unload() {
	c.mu.Lock()
	if c.closed || c.sessionID == "" {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.epoch++
	c.sessionID = ""
	c.title = ""
	c.messages = nil
	c.results = nil
	c.cachedID = ""
	c.filter = model.FilterAll
	c.query = ""
	c.banner = ""
	c.loading = false
	c.state = StateIdle
	c.commitLocked()
}

// =============================================================================
// SEND
// =============================================================================

// Send posts prompt to the loaded session. An optimistic user message is
// appended at once and kept whether or not the backend answers; on success
// the assistant reply follows it.
func (c *Controller) Send(ctx context.Context, prompt string) error {
	prompt = util.NormalizeText(prompt)
	if prompt == "" {
		return model.ErrEmptyPrompt
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.ErrClosed
	}
	if c.sessionID == "" {
		c.mu.Unlock()
		return model.ErrNoSession
	}
	if c.state == StateSending {
		c.mu.Unlock()
		return model.ErrBusy
	}
	t := sendTag{sessionID: c.sessionID, epoch: c.epoch}
	c.state = StateSending
	c.messages = append(c.messages, model.NewOptimisticMessage(t.sessionID, prompt, c.opts.Now()))
	c.commitLocked()

	reply, err := c.backend.Chat(ctx, t.sessionID, prompt)

	c.mu.Lock()
	if !c.sendValidLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	c.state = StateIdle
	if err != nil {
		c.commitLocked()
		logging.FromContext(ctx).Warn("send failed", "session_id", t.sessionID, "error", err)
		c.opts.Bus.Error("Failed to send message: " + api.Describe(err))
		return fmt.Errorf("send failed: %w", err)
	}
	reply.Content = util.NormalizeText(reply.Content)
	if model.IndexOf(c.messages, reply.MessageID) >= 0 {
		// A reload during the send already fetched the persisted exchange.
		temp := make(map[string]bool)
		for _, m := range c.messages {
			if model.IsTemporary(m.ID) {
				temp[m.ID] = true
			}
		}
		c.removeLocked(temp)
		c.cachedID = ""
		if reply.Cached {
			c.cachedID = reply.MessageID
		}
		c.commitLocked()
		return nil
	}
	c.messages = append(c.messages, model.Message{
		ID:        reply.MessageID,
		SessionID: t.sessionID,
		Role:      model.RoleAssistant,
		Content:   reply.Content,
		CreatedAt: c.opts.Now(),
		Cached:    reply.Cached,
	})
	if reply.Cached {
		c.cachedID = reply.MessageID
	} else {
		c.cachedID = ""
	}
	c.commitLocked()
	return nil
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// Rate sets the rating of a message. The backend is asked first; local
// state changes only on success.
func (c *Controller) Rate(ctx context.Context, id string, rating model.Rating) error {
	if rating != model.RatingUp && rating != model.RatingDown {
		return &model.ValidationError{Field: "rating", Reason: fmt.Sprintf("must be up or down, got %q", rating)}
	}
	if model.IsTemporary(id) {
		return &model.ValidationError{Field: "message", Reason: "not yet saved"}
	}
	t, err := c.begin()
	if err != nil {
		return err
	}

	err = c.backend.RateMessage(ctx, id, rating)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		c.opts.Bus.Error("Failed to rate message")
		return fmt.Errorf("rate failed: %w", err)
	}
	c.patchLocked(id, func(m *model.Message) { m.Rating = rating })
	c.commitLocked()
	return nil
}

// TogglePin flips the pin flag of a message and applies the value the
// backend reports.
func (c *Controller) TogglePin(ctx context.Context, id string) error {
	if model.IsTemporary(id) {
		return &model.ValidationError{Field: "message", Reason: "not yet saved"}
	}
	t, err := c.begin()
	if err != nil {
		return err
	}

	pinned, err := c.backend.TogglePin(ctx, id)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		c.opts.Bus.Error("Failed to toggle pin")
		return fmt.Errorf("toggle pin failed: %w", err)
	}
	c.patchLocked(id, func(m *model.Message) { m.Pinned = pinned })
	c.commitLocked()
	return nil
}

// DeleteMessage removes a message on the backend, then locally.
func (c *Controller) DeleteMessage(ctx context.Context, id string) error {
	if model.IsTemporary(id) {
		return &model.ValidationError{Field: "message", Reason: "not yet saved"}
	}
	t, err := c.begin()
	if err != nil {
		return err
	}

	err = c.backend.DeleteMessage(ctx, id)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		c.opts.Bus.Error("Failed to delete message")
		return fmt.Errorf("delete failed: %w", err)
	}
	c.removeLocked(map[string]bool{id: true})
	c.commitLocked()
	return nil
}

// =============================================================================
// SEARCH AND FILTERS
// =============================================================================

// Search runs a backend search in the loaded session. A blank query leaves
// search mode.
func (c *Controller) Search(ctx context.Context, query string) error {
	query = util.NormalizeText(query)
	t, err := c.begin()
	if err != nil {
		return err
	}
	if query == "" {
		c.mu.Lock()
		c.clearSearchLocked()
		c.commitLocked()
		return nil
	}

	results, err := c.backend.Search(ctx, t.sessionID, query, c.opts.SearchLimit)

	c.mu.Lock()
	if !c.validLocked(t) {
		c.mu.Unlock()
		return model.ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		c.opts.Bus.Error("Search failed: " + api.Describe(err))
		return fmt.Errorf("search failed: %w", err)
	}
	c.results = model.SortMessages(results)
	c.filter = model.FilterSearch
	c.query = query
	c.commitLocked()
	return nil
}

func (c *Controller) clearSearchLocked() {
	c.filter = model.FilterAll
	c.query = ""
	c.results = nil
}

// SetFilter switches to a locally computed projection. FilterAll also
// clears any search; FilterSearch is entered only through Search.
func (c *Controller) SetFilter(f model.Filter) error {
	switch f {
	case model.FilterAll, model.FilterPinned, model.FilterRated:
	case model.FilterSearch:
		return &model.ValidationError{Field: "filter", Reason: "search mode is entered by running a search"}
	default:
		return &model.ValidationError{Field: "filter", Reason: fmt.Sprintf("unknown filter %q", f)}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return model.ErrClosed
	}
	if f == model.FilterAll {
		c.clearSearchLocked()
	} else {
		c.filter = f
	}
	c.commitLocked()
	return nil
}

// CycleFilter moves to the next predicate filter and returns it.
func (c *Controller) CycleFilter() (model.Filter, error) {
	c.mu.Lock()
	next := c.filter.Next()
	c.mu.Unlock()
	return next, c.SetFilter(next)
}

// =============================================================================
// EXPORT
// =============================================================================

// Export builds a document from the loaded session. No backend call is made.
func (c *Controller) Export() (*export.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionID == "" {
		return nil, model.ErrNoSession
	}
	return export.NewDocument(c.title, c.sessionID, c.messages, c.opts.Now()), nil
}
