// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE ITEM
// =============================================================================

// MessageItem renders one message with its badges.
type MessageItem struct {
	Message  model.Message
	Cached   bool
	Selected bool
	Width    int
	theme    *styles.Theme
}

// NewMessageItem creates an item for msg.
func NewMessageItem(msg model.Message, theme *styles.Theme) *MessageItem {
	return &MessageItem{Message: msg, Cached: msg.Cached, Width: 80, theme: theme}
}

// View renders the item: a label line with badges, then the wrapped body.
func (m *MessageItem) View() string {
	t := m.theme
	msg := m.Message

	label := t.AssistantLabel.Render(msg.Role.DisplayName())
	if msg.Role == model.RoleUser {
		label = t.UserLabel.Render(msg.Role.DisplayName())
	}

	parts := []string{label}
	if !msg.CreatedAt.IsZero() {
		parts = append(parts, t.Timestamp.Render(msg.CreatedAt.Local().Format("15:04")))
	}
	parts = append(parts, m.badges()...)
	header := strings.Join(parts, " ")

	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	content := msg.Content
	if content == "" {
		content = "..."
	}
	bodyStyle := t.MessageBody.Width(width)
	if msg.Optimistic {
		bodyStyle = bodyStyle.Inherit(t.Unconfirmed)
	}
	body := bodyStyle.Render(content)

	out := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if m.Selected {
		out = t.MessageSelected.Render(out)
	} else {
		out = lipgloss.NewStyle().PaddingLeft(1).Render(out)
	}
	return out
}

func (m *MessageItem) badges() []string {
	t := m.theme
	msg := m.Message
	var out []string
	if msg.Pinned {
		out = append(out, t.PinnedBadge.Render(t.Indicators.Pinned))
	}
	if msg.IsRated() {
		out = append(out, t.RatedBadge.Render("["+msg.Rating.Symbol()+"]"))
	}
	if m.Cached {
		out = append(out, t.CachedBadge.Render(t.Indicators.Cached))
	}
	return out
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders the visible projection of a thread with a selection
// cursor used by the rate, pin and delete keys.
type MessageList struct {
	theme    *styles.Theme
	messages []model.Message
	cachedID string
	cursor   int
	empty    string
	width    int
	height   int
}

// NewMessageList creates an empty list.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{theme: theme, cursor: -1}
}

// SetSize sets the pane dimensions.
func (l *MessageList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// SetMessages replaces the list. cachedID marks the reply served from cache;
// empty is shown when msgs is empty. The cursor follows the selected id when
// it survives, otherwise it drops to the last message.
func (l *MessageList) SetMessages(msgs []model.Message, cachedID, empty string) {
	var selected string
	if l.cursor >= 0 && l.cursor < len(l.messages) {
		selected = l.messages[l.cursor].ID
	}
	atEnd := l.cursor == len(l.messages)-1 || l.cursor < 0

	l.messages = msgs
	l.cachedID = cachedID
	l.empty = empty

	if i := model.IndexOf(msgs, selected); i >= 0 && !atEnd {
		l.cursor = i
		return
	}
	l.cursor = len(msgs) - 1
}

// Len returns the number of messages.
func (l *MessageList) Len() int { return len(l.messages) }

// MoveCursor moves the selection by delta, clamped.
func (l *MessageList) MoveCursor(delta int) {
	if len(l.messages) == 0 {
		l.cursor = -1
		return
	}
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor >= len(l.messages) {
		l.cursor = len(l.messages) - 1
	}
}

// Selected returns the message under the cursor.
func (l *MessageList) Selected() (model.Message, bool) {
	if l.cursor < 0 || l.cursor >= len(l.messages) {
		return model.Message{}, false
	}
	return l.messages[l.cursor], true
}

// View renders the list, keeping the selection on screen.
func (l *MessageList) View() string {
	if len(l.messages) == 0 {
		return l.theme.Empty.Render(l.empty)
	}

	rendered := make([]string, len(l.messages))
	for i, msg := range l.messages {
		item := NewMessageItem(msg, l.theme)
		item.Cached = msg.Cached || (l.cachedID != "" && msg.ID == l.cachedID)
		item.Selected = i == l.cursor
		item.Width = l.width
		rendered[i] = item.View()
	}

	if l.height <= 0 {
		return strings.Join(rendered, "\n\n")
	}
	return clipToHeight(rendered, l.cursor, l.height)
}

// clipToHeight joins items and returns a window of height lines that ends
// at the focused item, or at the top when that item fits on the first page.
func clipToHeight(items []string, focus, height int) string {
	if focus < 0 || focus >= len(items) {
		focus = len(items) - 1
	}
	var lines []string
	focusEnd := 0
	for i, item := range items {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, strings.Split(item, "\n")...)
		if i == focus {
			focusEnd = len(lines)
		}
	}
	if len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	end := focusEnd
	if end < height {
		end = height
	}
	return strings.Join(lines[end-height:end], "\n")
}
