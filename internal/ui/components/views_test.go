// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testMessages() []model.Message {
	return []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "first question", CreatedAt: base},
		{ID: "m2", Role: model.RoleAssistant, Content: "first answer", Pinned: true, CreatedAt: base.Add(time.Second)},
		{ID: "m3", Role: model.RoleUser, Content: "second question", Rating: model.RatingUp, CreatedAt: base.Add(2 * time.Second)},
		{ID: "m4", Role: model.RoleAssistant, Content: "second answer", CreatedAt: base.Add(3 * time.Second)},
	}
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

func TestMessageItemBadges(t *testing.T) {
	theme := styles.NewTheme("dark")
	msgs := testMessages()

	pinned := NewMessageItem(msgs[1], theme).View()
	if !strings.Contains(pinned, theme.Indicators.Pinned) {
		t.Errorf("pinned message missing pin badge:\n%s", pinned)
	}
	if !strings.Contains(pinned, "Assistant") {
		t.Errorf("assistant label missing:\n%s", pinned)
	}

	rated := NewMessageItem(msgs[2], theme).View()
	if !strings.Contains(rated, "[+]") {
		t.Errorf("rated message missing rating badge:\n%s", rated)
	}

	item := NewMessageItem(msgs[3], theme)
	item.Cached = true
	if out := item.View(); !strings.Contains(out, theme.Indicators.Cached) {
		t.Errorf("cached reply missing cached badge:\n%s", out)
	}

	plain := NewMessageItem(msgs[0], theme).View()
	for _, badge := range []string{theme.Indicators.Pinned, theme.Indicators.Cached, "[+]"} {
		if strings.Contains(plain, badge) {
			t.Errorf("plain message should not carry %q", badge)
		}
	}
}

func TestMessageListCursorFollowsTail(t *testing.T) {
	l := NewMessageList(styles.NewTheme("dark"))
	msgs := testMessages()

	l.SetMessages(msgs[:2], "", "")
	if sel, ok := l.Selected(); !ok || sel.ID != "m2" {
		t.Fatalf("selection = %v %v, want m2", sel.ID, ok)
	}

	l.SetMessages(msgs, "", "")
	if sel, _ := l.Selected(); sel.ID != "m4" {
		t.Errorf("tail selection should follow appended messages, got %s", sel.ID)
	}

	l.MoveCursor(-2)
	if sel, _ := l.Selected(); sel.ID != "m2" {
		t.Fatalf("after moving up, selection = %s, want m2", sel.ID)
	}

	l.SetMessages(append(msgs, model.Message{ID: "m5", Role: model.RoleUser, Content: "x"}), "", "")
	if sel, _ := l.Selected(); sel.ID != "m2" {
		t.Errorf("non-tail selection should stay on m2, got %s", sel.ID)
	}

	l.MoveCursor(-100)
	if sel, _ := l.Selected(); sel.ID != "m1" {
		t.Errorf("cursor should clamp at the top, got %s", sel.ID)
	}
}

func TestMessageListEmptyAndCached(t *testing.T) {
	theme := styles.NewTheme("dark")
	l := NewMessageList(theme)

	l.SetMessages(nil, "", "No messages yet. Say something to start the chat.")
	if out := l.View(); !strings.Contains(out, "No messages yet") {
		t.Errorf("empty list should show the empty text, got %q", out)
	}
	if _, ok := l.Selected(); ok {
		t.Error("empty list should have no selection")
	}

	l.SetMessages(testMessages(), "m4", "")
	if out := l.View(); strings.Count(out, theme.Indicators.Cached) != 1 {
		t.Errorf("exactly one cached badge expected:\n%s", out)
	}
}

func TestClipToHeight(t *testing.T) {
	items := []string{"a1\na2", "b1\nb2", "c1\nc2"}

	if got := clipToHeight(items, 2, 100); got != "a1\na2\n\nb1\nb2\n\nc1\nc2" {
		t.Errorf("unclipped = %q", got)
	}
	if got := clipToHeight(items, 2, 3); got != "\nc1\nc2" {
		t.Errorf("clip to focused tail = %q", got)
	}
	if got := clipToHeight(items, 0, 3); got != "a1\na2\n" {
		t.Errorf("clip to focused head = %q", got)
	}
}

// =============================================================================
// SIDEBAR
// =============================================================================

func TestSidebarMarksActiveSession(t *testing.T) {
	theme := styles.NewTheme("dark")
	s := NewSidebar(theme)
	s.SetSize(30, 0)
	s.SetSessions([]model.Session{
		{ID: "s2", Title: "Trip planning", CreatedAt: base.Add(time.Hour)},
		{ID: "s1", Title: "", CreatedAt: base, MessageCount: 4},
	})
	s.SetActive("s1")

	out := s.View()
	if !strings.Contains(out, "Sessions (2)") {
		t.Errorf("missing count header:\n%s", out)
	}
	if !strings.Contains(out, theme.Indicators.Active+" "+model.UntitledSession) {
		t.Errorf("active session should carry the active marker:\n%s", out)
	}
	if !strings.Contains(out, "4 msgs") {
		t.Errorf("missing message count:\n%s", out)
	}
}

func TestSidebarCursorKeepsSelection(t *testing.T) {
	s := NewSidebar(styles.NewTheme("dark"))
	s.SetSessions([]model.Session{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	s.MoveCursor(2)
	if sel, _ := s.Selected(); sel.ID != "c" {
		t.Fatalf("selected = %s, want c", sel.ID)
	}

	s.SetSessions([]model.Session{{ID: "new"}, {ID: "a"}, {ID: "b"}, {ID: "c"}})
	if sel, _ := s.Selected(); sel.ID != "c" {
		t.Errorf("selection should survive a refresh, got %s", sel.ID)
	}

	s.SetSessions([]model.Session{{ID: "a"}})
	if sel, _ := s.Selected(); sel.ID != "a" {
		t.Errorf("removed selection should reset to the top, got %s", sel.ID)
	}

	s.SetSessions(nil)
	if _, ok := s.Selected(); ok {
		t.Error("empty sidebar should have no selection")
	}
	if out := s.View(); !strings.Contains(out, "No sessions yet") {
		t.Errorf("empty sidebar text missing:\n%s", out)
	}
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func TestHeaderTabs(t *testing.T) {
	h := NewHeader(styles.NewTheme("dark"))
	h.SetWidth(80)
	h.Title = "Trip planning"

	out := h.View()
	for _, want := range []string{"Trip planning", "All", "Pinned", "Rated"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Search") {
		t.Error("search tab should be hidden outside search mode")
	}

	h.Filter = model.FilterSearch
	h.Query = "hello"
	out = h.View()
	if !strings.Contains(out, "Search") || !strings.Contains(out, "search: hello") {
		t.Errorf("search header missing query:\n%s", out)
	}
}

func TestStatusBarLayouts(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme("dark"))
	sb.Email = "ada@example.com"
	sb.BaseURL = "http://localhost:8000"
	sb.State = "Sending..."
	sb.Shortcuts = []Shortcut{{"n", "new"}, {"r", "rename"}, {"/", "search"}}

	sb.SetWidth(140)
	wide := sb.View()
	for _, want := range []string{"ada@example.com", "http://localhost:8000", "Sending...", "rename"} {
		if !strings.Contains(wide, want) {
			t.Errorf("wide status bar missing %q:\n%s", want, wide)
		}
	}

	sb.SetWidth(50)
	narrow := sb.View()
	if strings.Contains(narrow, "localhost") {
		t.Error("narrow status bar should drop the server address")
	}
}

// =============================================================================
// STATS VIEW
// =============================================================================

func TestStatsViewKeepsLastGoodStats(t *testing.T) {
	v := NewStatsView(styles.NewTheme("dark"))
	if out := v.View(); !strings.Contains(out, "Loading stats") {
		t.Errorf("initial view should be loading:\n%s", out)
	}

	v.Update(model.Stats{}, false, "Failed to load system stats", base)
	if out := v.View(); !strings.Contains(out, "Failed to load system stats") {
		t.Errorf("first failure should be shown:\n%s", out)
	}

	v.Update(model.Stats{TotalRequests: 1234, CacheHitRate: 0.5, ModelLoaded: true, UptimeSeconds: 3700}, true, "", base)
	out := v.View()
	for _, want := range []string{"1,234", "50.0%", "loaded", "1h 1m"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats view missing %q:\n%s", want, out)
		}
	}

	v.Update(model.Stats{}, false, "Failed to load system stats", base)
	out = v.View()
	if !strings.Contains(out, "1,234") || !strings.Contains(out, "Failed to load system stats") {
		t.Errorf("failed poll should keep last stats and show the error:\n%s", out)
	}
}
