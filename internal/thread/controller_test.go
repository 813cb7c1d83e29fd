// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/session"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

var base = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu       sync.Mutex
	sessions map[string][]model.Message
	titles   map[string]string
	seq      int

	chatGate  chan struct{}
	chatErr   error
	// persist the exchange before waiting on chatGate
	chatEarly bool
	getErr    error
	getGate   chan struct{}
	cacheHits map[string]bool

	pinSeq     []bool
	pinCalls   int
	failDelete map[string]bool
	failCreate map[string]bool

	calls map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions:   make(map[string][]model.Message),
		titles:     make(map[string]string),
		cacheHits:  make(map[string]bool),
		failDelete: make(map[string]bool),
		failCreate: make(map[string]bool),
		calls:      make(map[string]int),
	}
}

func (f *fakeBackend) add(sessionID string, role model.Role, content string) model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(sessionID, role, content)
}

func (f *fakeBackend) addLocked(sessionID string, role model.Role, content string) model.Message {
	f.seq++
	m := model.Message{
		ID:        fmt.Sprintf("m%d", f.seq),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: base.Add(time.Duration(f.seq) * time.Second),
	}
	f.sessions[sessionID] = append(f.sessions[sessionID], m)
	return m
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) find(id string) (string, int) {
	for sid, msgs := range f.sessions {
		if i := model.IndexOf(msgs, id); i >= 0 {
			return sid, i
		}
	}
	return "", -1
}

func (f *fakeBackend) GetSession(ctx context.Context, id string) (*api.SessionDetail, error) {
	f.mu.Lock()
	f.calls["get"]++
	gate, getErr := f.getGate, f.getErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if getErr != nil {
		return nil, getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := make([]model.Message, len(f.sessions[id]))
	copy(msgs, f.sessions[id])
	return &api.SessionDetail{
		Session:  model.Session{ID: id, Title: f.titles[id], CreatedAt: base},
		Messages: msgs,
	}, nil
}

func (f *fakeBackend) Chat(ctx context.Context, sessionID, prompt string) (api.ChatReply, error) {
	f.mu.Lock()
	f.calls["chat"]++
	gate, chatErr := f.chatGate, f.chatErr
	var early api.ChatReply
	if f.chatEarly {
		early = f.exchangeLocked(sessionID, prompt)
	}
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.ChatReply{}, ctx.Err()
		}
	}
	if chatErr != nil {
		return api.ChatReply{}, chatErr
	}
	if early.MessageID != "" {
		return early, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchangeLocked(sessionID, prompt), nil
}

func (f *fakeBackend) exchangeLocked(sessionID, prompt string) api.ChatReply {
	key := sessionID + "|" + prompt
	cached := f.cacheHits[key]
	f.cacheHits[key] = true
	f.addLocked(sessionID, model.RoleUser, prompt)
	reply := f.addLocked(sessionID, model.RoleAssistant, "Echo: "+prompt)
	return api.ChatReply{MessageID: reply.ID, Content: reply.Content, Cached: cached}
}

func (f *fakeBackend) Search(_ context.Context, sessionID, query string, limit int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["search"]++
	var out []model.Message
	for _, m := range f.sessions[sessionID] {
		if strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeBackend) RateMessage(_ context.Context, id string, rating model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["rate"]++
	sid, i := f.find(id)
	if i < 0 {
		return &api.HTTPError{Status: 404, Message: "Message not found"}
	}
	f.sessions[sid][i].Rating = rating
	return nil
}

func (f *fakeBackend) TogglePin(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["pin"]++
	sid, i := f.find(id)
	if i < 0 {
		return false, &api.HTTPError{Status: 404, Message: "Message not found"}
	}
	pinned := !f.sessions[sid][i].Pinned
	if f.pinCalls < len(f.pinSeq) {
		pinned = f.pinSeq[f.pinCalls]
	}
	f.pinCalls++
	f.sessions[sid][i].Pinned = pinned
	return pinned, nil
}

func (f *fakeBackend) DeleteMessage(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++
	if f.failDelete[id] {
		return &api.HTTPError{Status: 500, Message: "boom"}
	}
	sid, i := f.find(id)
	if i < 0 {
		return &api.HTTPError{Status: 404, Message: "Message not found"}
	}
	f.sessions[sid] = append(f.sessions[sid][:i:i], f.sessions[sid][i+1:]...)
	return nil
}

func (f *fakeBackend) CreateMessage(_ context.Context, sessionID, content string, role model.Role) (model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["create"]++
	if f.failCreate[content] {
		return model.Message{}, &api.HTTPError{Status: 500, Message: "boom"}
	}
	return f.addLocked(sessionID, role, content), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newController(t *testing.T, fb *fakeBackend) (*Controller, *notify.Bus) {
	t.Helper()
	bus := notify.NewBus()
	ctl := New(fb, Options{Bus: bus, BulkRatePerSecond: 1000})
	t.Cleanup(ctl.Close)
	return ctl, bus
}

func collect(bus *notify.Bus) func() []notify.Notification {
	var mu sync.Mutex
	var got []notify.Notification
	bus.Subscribe(func(n notify.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})
	return func() []notify.Notification {
		mu.Lock()
		defer mu.Unlock()
		out := make([]notify.Notification, len(got))
		copy(out, got)
		return out
	}
}

func contents(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Role) + ":" + m.Content
	}
	return out
}

func ids(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

// assertProjection checks that the view equals the active predicate over
// the full set.
func assertProjection(t *testing.T, ctl *Controller) {
	t.Helper()
	snap := ctl.Snapshot()
	if snap.Filter == model.FilterSearch {
		return
	}
	assert.Equal(t, ids(model.Project(snap.Messages, snap.Filter)), ids(snap.View), "filter %s", snap.Filter)
}

// =============================================================================
// LOAD
// =============================================================================

func TestLoadSortsAndResetsFilter(t *testing.T) {
	fb := newFakeBackend()
	fb.titles["s1"] = "Trip"
	fb.sessions["s1"] = []model.Message{
		{ID: "b", Role: model.RoleAssistant, Content: "second", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", Role: model.RoleUser, Content: "first", CreatedAt: base.Add(time.Second)},
		{ID: "c", Role: model.RoleUser, Content: "tie", CreatedAt: base.Add(2 * time.Second)},
	}
	ctl, _ := newController(t, fb)
	ctx := context.Background()

	require.NoError(t, ctl.Load(ctx, "s1"))
	require.NoError(t, ctl.SetFilter(model.FilterPinned))
	require.NoError(t, ctl.Load(ctx, "s1"))

	snap := ctl.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap.Messages))
	assert.Equal(t, model.FilterAll, snap.Filter)
	assert.Equal(t, "Trip", snap.Title)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Banner)
}

func TestLoadFailureSetsBannerUntilNextSuccess(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "hi")
	ctl, _ := newController(t, fb)
	ctx := context.Background()

	require.NoError(t, ctl.Load(ctx, "s1"))
	fb.mu.Lock()
	fb.getErr = &api.NetworkError{Method: "GET", URL: "/sessions/s1", Err: errors.New("connection refused")}
	fb.mu.Unlock()

	err := ctl.Load(ctx, "s1")
	var loadErr *model.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "s1", loadErr.SessionID)

	snap := ctl.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Contains(t, snap.Banner, "connection refused")

	fb.mu.Lock()
	fb.getErr = nil
	fb.mu.Unlock()
	require.NoError(t, ctl.Load(ctx, "s1"))
	assert.Empty(t, ctl.Snapshot().Banner)
	assert.Len(t, ctl.Snapshot().Messages, 1)
}

func TestEmptyStateText(t *testing.T) {
	assert.Equal(t, "No messages yet. Say something to start the chat.", Snapshot{Filter: model.FilterAll}.Empty())
	assert.Equal(t, "No messages match your search.", Snapshot{Filter: model.FilterSearch}.Empty())
}

// =============================================================================
// SEND
// =============================================================================

func TestSendOptimisticThenAssistantRegardlessOfLatency(t *testing.T) {
	fb := newFakeBackend()
	fb.chatGate = make(chan struct{})
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "  Hello  ") }()

	require.Eventually(t, func() bool { return ctl.Snapshot().State == StateSending }, time.Second, 5*time.Millisecond)
	snap := ctl.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.Messages[0].Optimistic)
	assert.True(t, model.IsTemporary(snap.Messages[0].ID))
	assert.Equal(t, "Hello", snap.Messages[0].Content)

	// second send while busy is a no-op
	assert.ErrorIs(t, ctl.Send(ctx, "again"), model.ErrBusy)
	assert.Len(t, ctl.Snapshot().Messages, 1)

	time.Sleep(20 * time.Millisecond)
	close(fb.chatGate)
	require.NoError(t, <-done)

	snap = ctl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, []string{"user:Hello", "assistant:Echo: Hello"}, contents(snap.Messages))
	assert.Equal(t, 1, fb.count("chat"))
}

func TestSendRejectsEmptyPrompt(t *testing.T) {
	fb := newFakeBackend()
	ctl, _ := newController(t, fb)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	assert.ErrorIs(t, ctl.Send(context.Background(), "   \n\t"), model.ErrEmptyPrompt)
	assert.Empty(t, ctl.Snapshot().Messages)
	assert.Equal(t, 0, fb.count("chat"))
}

func TestSendWithoutSession(t *testing.T) {
	ctl, _ := newController(t, newFakeBackend())
	assert.ErrorIs(t, ctl.Send(context.Background(), "hi"), model.ErrNoSession)
}

func TestSendFailureKeepsOptimisticMessage(t *testing.T) {
	fb := newFakeBackend()
	fb.chatErr = &api.HTTPError{Status: 500, Message: "Internal Server Error"}
	ctl, bus := newController(t, fb)
	notes := collect(bus)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	err := ctl.Send(context.Background(), "Hello")
	require.Error(t, err)
	var httpErr *api.HTTPError
	assert.ErrorAs(t, err, &httpErr)

	snap := ctl.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.True(t, snap.Messages[0].Optimistic)
	assert.Equal(t, StateIdle, snap.State)

	got := notes()
	require.Len(t, got, 1)
	assert.Equal(t, notify.KindError, got[0].Kind)
	assert.Contains(t, got[0].Message, "Internal Server Error")
}

func TestSendCachedReplyTracksCachedID(t *testing.T) {
	fb := newFakeBackend()
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	require.NoError(t, ctl.Send(ctx, "ping"))
	assert.Empty(t, ctl.Snapshot().CachedID)

	require.NoError(t, ctl.Send(ctx, "ping"))
	snap := ctl.Snapshot()
	last := snap.Messages[len(snap.Messages)-1]
	assert.True(t, last.Cached)
	assert.Equal(t, last.ID, snap.CachedID)
}

func TestReloadWhileSendingKeepsSendInFlight(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "earlier")
	fb.chatGate = make(chan struct{})
	ctl, bus := newController(t, fb)
	notes := collect(bus)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "one") }()
	require.Eventually(t, func() bool { return ctl.Snapshot().State == StateSending }, time.Second, 5*time.Millisecond)

	require.NoError(t, ctl.Reload(ctx))
	require.NoError(t, ctl.Load(ctx, "s1"))
	snap := ctl.Snapshot()
	assert.Equal(t, StateSending, snap.State)
	assert.Equal(t, []string{"user:earlier", "user:one"}, contents(snap.Messages))
	assert.True(t, snap.Messages[1].Optimistic)

	assert.ErrorIs(t, ctl.Send(ctx, "two"), model.ErrBusy)
	assert.Equal(t, 1, fb.count("chat"))

	close(fb.chatGate)
	require.NoError(t, <-done)
	snap = ctl.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, []string{"user:earlier", "user:one", "assistant:Echo: one"}, contents(snap.Messages))
	assert.Empty(t, notes())
}

func TestReloadThatFetchesTheReplyDoesNotDuplicateIt(t *testing.T) {
	fb := newFakeBackend()
	fb.chatGate = make(chan struct{})
	fb.chatEarly = true
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "one") }()
	require.Eventually(t, func() bool { return fb.count("chat") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, ctl.Reload(ctx))
	assert.Equal(t, StateSending, ctl.Snapshot().State)

	close(fb.chatGate)
	require.NoError(t, <-done)
	snap := ctl.Snapshot()
	assert.Equal(t, []string{"user:one", "assistant:Echo: one"}, contents(snap.Messages))
	for _, m := range snap.Messages {
		assert.False(t, model.IsTemporary(m.ID), m.ID)
	}
	assert.Equal(t, StateIdle, snap.State)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestTogglePinAppliesBackendValue(t *testing.T) {
	fb := newFakeBackend()
	m := fb.add("s1", model.RoleAssistant, "pin me")
	fb.pinSeq = []bool{true, true}
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	require.NoError(t, ctl.TogglePin(ctx, m.ID))
	require.NoError(t, ctl.TogglePin(ctx, m.ID))

	assert.True(t, ctl.Snapshot().Messages[0].Pinned)
	assert.Equal(t, 2, fb.count("pin"))
}

func TestRateValidation(t *testing.T) {
	fb := newFakeBackend()
	m := fb.add("s1", model.RoleAssistant, "x")
	ctl, _ := newController(t, fb)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	err := ctl.Rate(context.Background(), m.ID, model.Rating("meh"))
	assert.True(t, model.IsValidation(err))
	err = ctl.Rate(context.Background(), model.TempIDPrefix+"x", model.RatingUp)
	assert.True(t, model.IsValidation(err))
	assert.Equal(t, 0, fb.count("rate"))
}

func TestRateFailureLeavesStateUnchanged(t *testing.T) {
	fb := newFakeBackend()
	ctl, bus := newController(t, fb)
	notes := collect(bus)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	err := ctl.Rate(context.Background(), "missing", model.RatingUp)
	assert.True(t, api.IsNotFound(err))
	require.Len(t, notes(), 1)
	assert.Equal(t, "Failed to rate message", notes()[0].Message)
}

func TestRateSameValueTwiceRoundTrips(t *testing.T) {
	fb := newFakeBackend()
	m := fb.add("s1", model.RoleAssistant, "hello there")
	fb.add("s1", model.RoleUser, "hello back")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))
	require.NoError(t, ctl.Search(ctx, "hello"))

	require.NoError(t, ctl.Rate(ctx, m.ID, model.RatingUp))
	first := ctl.Snapshot()
	require.NoError(t, ctl.Rate(ctx, m.ID, model.RatingUp))
	second := ctl.Snapshot()

	assert.Equal(t, 2, fb.count("rate"))
	assert.Equal(t, model.RatingUp, second.Messages[0].Rating)
	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, first.View, second.View)
	assert.Equal(t, model.FilterSearch, second.Filter)
}

func TestFilteredViewTracksMutations(t *testing.T) {
	fb := newFakeBackend()
	m1 := fb.add("s1", model.RoleUser, "one")
	m2 := fb.add("s1", model.RoleAssistant, "two")
	m3 := fb.add("s1", model.RoleUser, "three")
	m4 := fb.add("s1", model.RoleAssistant, "four")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	steps := []func() error{
		func() error { return ctl.SetFilter(model.FilterPinned) },
		func() error { return ctl.TogglePin(ctx, m1.ID) },
		func() error { return ctl.TogglePin(ctx, m3.ID) },
		func() error { return ctl.Rate(ctx, m2.ID, model.RatingUp) },
		func() error { return ctl.SetFilter(model.FilterRated) },
		func() error { return ctl.Rate(ctx, m4.ID, model.RatingDown) },
		func() error { return ctl.DeleteMessage(ctx, m2.ID) },
		func() error { return ctl.SetFilter(model.FilterPinned) },
		func() error { return ctl.TogglePin(ctx, m1.ID) },
		func() error { return ctl.DeleteMessage(ctx, m3.ID) },
		func() error { return ctl.SetFilter(model.FilterAll) },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertProjection(t, ctl)
	}

	assert.Equal(t, []string{m1.ID, m4.ID}, ids(ctl.View()))
	require.NoError(t, ctl.SetFilter(model.FilterRated))
	assert.Equal(t, []string{m4.ID}, ids(ctl.View()))
	require.NoError(t, ctl.SetFilter(model.FilterPinned))
	assert.Empty(t, ctl.View())
}

func TestSetFilterRejectsSearch(t *testing.T) {
	ctl, _ := newController(t, newFakeBackend())
	assert.True(t, model.IsValidation(ctl.SetFilter(model.FilterSearch)))
	assert.True(t, model.IsValidation(ctl.SetFilter(model.Filter("bogus"))))
}

func TestCycleFilter(t *testing.T) {
	ctl, _ := newController(t, newFakeBackend())
	got, err := ctl.CycleFilter()
	require.NoError(t, err)
	assert.Equal(t, model.FilterPinned, got)
	got, _ = ctl.CycleFilter()
	assert.Equal(t, model.FilterRated, got)
	got, _ = ctl.CycleFilter()
	assert.Equal(t, model.FilterAll, got)
}

// =============================================================================
// SEARCH
// =============================================================================

func TestSearchResultsArePatchedAndCleared(t *testing.T) {
	fb := newFakeBackend()
	m1 := fb.add("s1", model.RoleUser, "hello world")
	fb.add("s1", model.RoleAssistant, "unrelated")
	m3 := fb.add("s1", model.RoleAssistant, "Hello again")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	require.NoError(t, ctl.Search(ctx, "hello"))
	snap := ctl.Snapshot()
	assert.Equal(t, model.FilterSearch, snap.Filter)
	assert.Equal(t, "hello", snap.Query)
	assert.Equal(t, []string{m1.ID, m3.ID}, ids(snap.View))
	assert.Len(t, snap.Messages, 3)

	require.NoError(t, ctl.Rate(ctx, m1.ID, model.RatingUp))
	assert.Equal(t, model.RatingUp, ctl.View()[0].Rating)

	require.NoError(t, ctl.TogglePin(ctx, m3.ID))
	assert.True(t, ctl.View()[1].Pinned)

	require.NoError(t, ctl.DeleteMessage(ctx, m1.ID))
	assert.Equal(t, []string{m3.ID}, ids(ctl.View()))
	assert.Len(t, ctl.Snapshot().Messages, 2)

	require.NoError(t, ctl.Search(ctx, "   "))
	snap = ctl.Snapshot()
	assert.Equal(t, model.FilterAll, snap.Filter)
	assert.Empty(t, snap.Query)
	assert.Len(t, snap.View, 2)
	assert.Equal(t, 1, fb.count("search"))
}

func TestSetFilterAllClearsSearch(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "hello")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))
	require.NoError(t, ctl.Search(ctx, "hello"))

	require.NoError(t, ctl.SetFilter(model.FilterAll))
	assert.Empty(t, ctl.Snapshot().Query)
	assert.Equal(t, model.FilterAll, ctl.Snapshot().Filter)
}

// =============================================================================
// STALE RESPONSES
// =============================================================================

func TestResponseForPreviousSessionIsDiscarded(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s2", model.RoleUser, "other session")
	fb.chatGate = make(chan struct{})
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "Hello") }()
	require.Eventually(t, func() bool { return ctl.Snapshot().State == StateSending }, time.Second, 5*time.Millisecond)

	require.NoError(t, ctl.Load(ctx, "s2"))
	close(fb.chatGate)
	assert.ErrorIs(t, <-done, model.ErrStale)

	snap := ctl.Snapshot()
	assert.Equal(t, "s2", snap.SessionID)
	assert.Equal(t, []string{"user:other session"}, contents(snap.Messages))
	assert.Equal(t, StateIdle, snap.State)
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "from s1")
	fb.add("s2", model.RoleUser, "from s2")
	fb.getGate = make(chan struct{})
	ctl, _ := newController(t, fb)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- ctl.Load(ctx, "s1") }()
	require.Eventually(t, func() bool { return fb.count("get") == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- ctl.Load(ctx, "s2") }()
	require.Eventually(t, func() bool { return fb.count("get") == 2 }, time.Second, 5*time.Millisecond)

	close(fb.getGate)
	errs := []error{<-first, <-second}
	assert.ErrorIs(t, errs[0], model.ErrStale)
	assert.NoError(t, errs[1])
	assert.Equal(t, []string{"user:from s2"}, contents(ctl.Snapshot().Messages))
}

func TestCloseDropsLateResponses(t *testing.T) {
	fb := newFakeBackend()
	fb.chatGate = make(chan struct{})
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "Hello") }()
	require.Eventually(t, func() bool { return ctl.Snapshot().State == StateSending }, time.Second, 5*time.Millisecond)

	ctl.Close()
	close(fb.chatGate)
	assert.ErrorIs(t, <-done, model.ErrStale)
	assert.Len(t, ctl.Snapshot().Messages, 1)
	assert.ErrorIs(t, ctl.Send(ctx, "more"), model.ErrClosed)
}

func TestUnloadDropsLateResponsesAndAllowsReload(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s2", model.RoleUser, "other session")
	fb.chatGate = make(chan struct{})
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	done := make(chan error, 1)
	go func() { done <- ctl.Send(ctx, "Hello") }()
	require.Eventually(t, func() bool { return ctl.Snapshot().State == StateSending }, time.Second, 5*time.Millisecond)

	ctl.Unload()
	close(fb.chatGate)
	assert.ErrorIs(t, <-done, model.ErrStale)

	snap := ctl.Snapshot()
	assert.Empty(t, snap.SessionID)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, StateIdle, snap.State)
	assert.ErrorIs(t, ctl.Send(ctx, "more"), model.ErrNoSession)

	require.NoError(t, ctl.Load(ctx, "s2"))
	assert.Equal(t, []string{"user:other session"}, contents(ctl.Snapshot().Messages))
}

func TestObserversReceiveIncreasingVersions(t *testing.T) {
	fb := newFakeBackend()
	ctl, _ := newController(t, fb)
	var mu sync.Mutex
	var versions []uint64
	unsubscribe := ctl.OnChange(func(s Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})

	require.NoError(t, ctl.Load(context.Background(), "s1"))
	require.NoError(t, ctl.Send(context.Background(), "hi"))
	unsubscribe()
	require.NoError(t, ctl.SetFilter(model.FilterPinned))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, versions, 4)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
}

// =============================================================================
// CLEAR / IMPORT / EXPORT
// =============================================================================

func TestClearSessionDeclined(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "keep")
	ctl, _ := newController(t, fb)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	decline := session.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	assert.ErrorIs(t, ctl.ClearSession(context.Background(), decline), model.ErrCancelled)
	assert.ErrorIs(t, ctl.ClearSession(context.Background(), nil), model.ErrCancelled)
	assert.Equal(t, 0, fb.count("delete"))
	assert.Len(t, ctl.Snapshot().Messages, 1)
}

func TestClearSessionPartialFailure(t *testing.T) {
	fb := newFakeBackend()
	var all []model.Message
	for i := 0; i < 6; i++ {
		all = append(all, fb.add("s1", model.RoleUser, fmt.Sprintf("msg %d", i)))
	}
	fb.failDelete[all[2].ID] = true
	ctl, bus := newController(t, fb)
	notes := collect(bus)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	var prompt string
	confirm := session.ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return true, nil
	})
	err := ctl.ClearSession(ctx, confirm)

	var bulk *BulkError
	require.ErrorAs(t, err, &bulk)
	assert.Equal(t, []string{all[2].ID}, bulk.FailedIDs())
	assert.Equal(t, 6, bulk.Total)
	assert.Contains(t, prompt, "6 messages")
	assert.Equal(t, []string{all[2].ID}, ids(ctl.Snapshot().Messages))
	assert.Equal(t, 6, fb.count("delete"))
	require.NotEmpty(t, notes())
	assert.Equal(t, notify.KindError, notes()[0].Kind)
}

func TestClearSessionSuccess(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "a")
	fb.add("s1", model.RoleAssistant, "b")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	require.NoError(t, ctl.ClearSession(ctx, session.AlwaysConfirm))
	assert.Empty(t, ctl.Snapshot().Messages)
	require.NoError(t, ctl.Load(ctx, "s1"))
	assert.Empty(t, ctl.Snapshot().Messages)
}

func TestImportIntoEmptySession(t *testing.T) {
	fb := newFakeBackend()
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	doc, err := export.Decode([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))
	require.NoError(t, err)

	res, err := ctl.Import(ctx, doc, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"user:hi", "assistant:hello"}, contents(ctl.Snapshot().Messages))
	assert.Equal(t, 2, fb.count("get"))
}

func TestImportCountsFailures(t *testing.T) {
	fb := newFakeBackend()
	fb.failCreate["bad"] = true
	ctl, bus := newController(t, fb)
	notes := collect(bus)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	doc := &export.Document{Messages: []export.DocMessage{
		{Role: model.RoleUser, Content: "one"},
		{Role: model.RoleUser, Content: "bad"},
		{Role: model.RoleAssistant, Content: "three"},
	}}
	res, err := ctl.Import(ctx, doc, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "message 2")
	assert.Equal(t, "Imported 2 of 3 messages (1 failed)", res.String())
	assert.Equal(t, []string{"user:one", "assistant:three"}, contents(ctl.Snapshot().Messages))
	assert.Equal(t, notify.KindWarning, notes()[len(notes())-1].Kind)
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	fb := newFakeBackend()
	ctl, _ := newController(t, fb)
	require.NoError(t, ctl.Load(context.Background(), "s1"))

	var formatErr *model.FormatError
	_, err := ctl.Import(context.Background(), nil, ImportOptions{})
	assert.ErrorAs(t, err, &formatErr)
	_, err = ctl.Import(context.Background(), &export.Document{}, ImportOptions{})
	assert.ErrorAs(t, err, &formatErr)
	assert.Equal(t, 0, fb.count("create"))
}

func TestImportWithClearAndFlags(t *testing.T) {
	fb := newFakeBackend()
	fb.add("s1", model.RoleUser, "old")
	ctl, _ := newController(t, fb)
	ctx := context.Background()
	require.NoError(t, ctl.Load(ctx, "s1"))

	doc := &export.Document{Messages: []export.DocMessage{
		{Role: model.RoleUser, Content: "q"},
		{Role: model.RoleAssistant, Content: "a", Rating: model.RatingUp, Pinned: true},
	}}

	decline := session.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	_, err := ctl.Import(ctx, doc, ImportOptions{Clear: true, Confirm: decline})
	assert.ErrorIs(t, err, model.ErrCancelled)
	assert.Equal(t, 0, fb.count("create"))

	_, err = ctl.Import(ctx, doc, ImportOptions{Clear: true, Confirm: session.AlwaysConfirm, RestoreFlags: true})
	require.NoError(t, err)
	snap := ctl.Snapshot()
	assert.Equal(t, []string{"user:q", "assistant:a"}, contents(snap.Messages))
	assert.Equal(t, model.RatingUp, snap.Messages[1].Rating)
	assert.True(t, snap.Messages[1].Pinned)
}

func TestExportImportRoundTrip(t *testing.T) {
	fb := newFakeBackend()
	fb.titles["s1"] = "Source"
	fb.add("s1", model.RoleUser, "one")
	fb.add("s1", model.RoleAssistant, "two")
	fb.add("s1", model.RoleUser, "three")
	ctl, _ := newController(t, fb)
	ctx := context.Background()

	require.NoError(t, ctl.Load(ctx, "s1"))
	doc, err := ctl.Export()
	require.NoError(t, err)
	assert.Equal(t, "Source", doc.Title)
	data, err := export.Encode(doc)
	require.NoError(t, err)

	decoded, err := export.Decode(data)
	require.NoError(t, err)
	require.NoError(t, ctl.Load(ctx, "s2"))
	_, err = ctl.Import(ctx, decoded, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"user:one", "assistant:two", "user:three"}, contents(ctl.Snapshot().Messages))
}

func TestExportWithoutSession(t *testing.T) {
	ctl, _ := newController(t, newFakeBackend())
	_, err := ctl.Export()
	assert.ErrorIs(t, err, model.ErrNoSession)
}
