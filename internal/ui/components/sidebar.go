// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar renders the session list with the active session marked.
type Sidebar struct {
	theme    *styles.Theme
	sessions []model.Session
	activeID string
	cursor   int
	focused  bool
	loading  bool
	errText  string
	width    int
	height   int
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme, width: 28}
}

// SetSize sets the outer dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetSessions replaces the list. The cursor stays on the same session when it
// is still present.
func (s *Sidebar) SetSessions(sessions []model.Session) {
	var current string
	if s.cursor >= 0 && s.cursor < len(s.sessions) {
		current = s.sessions[s.cursor].ID
	}
	s.sessions = sessions
	s.cursor = 0
	for i, sess := range sessions {
		if sess.ID == current {
			s.cursor = i
			break
		}
	}
}

// SetActive marks the session shown in the chat pane.
func (s *Sidebar) SetActive(id string) { s.activeID = id }

// SetFocused toggles keyboard focus.
func (s *Sidebar) SetFocused(focused bool) { s.focused = focused }


// SetLoading shows a loading line instead of the list.
func (s *Sidebar) SetLoading(loading bool) { s.loading = loading }

// SetError shows a fetch error above the list. Empty clears it.
func (s *Sidebar) SetError(text string) { s.errText = text }

// MoveCursor moves the cursor by delta, clamped to the list.
func (s *Sidebar) MoveCursor(delta int) {
	if len(s.sessions) == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= len(s.sessions) {
		s.cursor = len(s.sessions) - 1
	}
}

// Selected returns the session under the cursor.
func (s *Sidebar) Selected() (model.Session, bool) {
	if s.cursor < 0 || s.cursor >= len(s.sessions) {
		return model.Session{}, false
	}
	return s.sessions[s.cursor], true
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	t := s.theme
	inner := s.width - 3
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(t.SidebarTitle.Render("Sessions (" + strconv.Itoa(len(s.sessions)) + ")"))
	b.WriteString("\n")

	if s.errText != "" {
		b.WriteString(t.Banner.Render(util.TruncateWidth(s.errText, inner)))
		b.WriteString("\n")
	}

	switch {
	case s.loading && len(s.sessions) == 0:
		b.WriteString(t.SessionMeta.Render("Loading..."))
	case len(s.sessions) == 0:
		b.WriteString(t.SessionMeta.Render("No sessions yet. Press n to start one."))
	default:
		for i, sess := range s.visible() {
			b.WriteString(s.renderItem(sess, i+s.offset(), inner))
			b.WriteString("\n")
		}
	}

	style := t.Sidebar.Width(s.width - 1)
	if s.height > 0 {
		style = style.Height(s.height)
	}
	if s.focused {
		style = style.BorderForeground(t.Palette.Accent)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (s *Sidebar) renderItem(sess model.Session, idx, width int) string {
	t := s.theme
	marker := "  "
	style := t.SessionItem
	if sess.ID == s.activeID {
		marker = t.Indicators.Active + " "
		style = t.SessionItemActive
	}

	title := marker + util.PadWidth(util.SingleLine(sess.DisplayTitle()), width-2)
	line := style.Render(title)
	if s.focused && idx == s.cursor {
		line = t.SessionCursor.Render(title)
	}

	meta := "  " + sess.CreatedAt.Local().Format("Jan 2 15:04")
	if sess.MessageCount > 0 {
		meta += " | " + strconv.Itoa(sess.MessageCount) + " msgs"
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, t.SessionMeta.Render(util.TruncateWidth(meta, width)))
}

// rows each item occupies: title + meta.
const sidebarItemRows = 2

func (s *Sidebar) capacity() int {
	if s.height <= 0 {
		return len(s.sessions)
	}
	n := (s.height - 2) / sidebarItemRows
	if n < 1 {
		n = 1
	}
	return n
}

func (s *Sidebar) offset() int {
	c := s.capacity()
	if s.cursor < c {
		return 0
	}
	return s.cursor - c + 1
}

func (s *Sidebar) visible() []model.Session {
	start := s.offset()
	end := start + s.capacity()
	if end > len(s.sessions) {
		end = len(s.sessions)
	}
	return s.sessions[start:end]
}
