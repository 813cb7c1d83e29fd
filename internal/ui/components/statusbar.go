// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom line: user, connection state and key hints.
type StatusBar struct {
	Email     string
	BaseURL   string
	State     string
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, Width: 80}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar. Narrow terminals drop the server address and most
// shortcuts.
func (s *StatusBar) View() string {
	t := s.theme
	sep := t.Divider.Render(" | ")

	var left []string
	if s.Email != "" {
		left = append(left, t.StatsValue.Render(s.Email))
	} else {
		left = append(left, t.ShortcutDesc.Render("not logged in"))
	}
	if s.BaseURL != "" && styles.LayoutFor(s.Width) == styles.LayoutWide {
		left = append(left, t.ShortcutDesc.Render(s.BaseURL))
	}
	if s.State != "" {
		left = append(left, t.Sending.Render(s.State))
	}
	leftText := strings.Join(left, sep)

	shortcuts := s.Shortcuts
	switch styles.LayoutFor(s.Width) {
	case styles.LayoutNarrow:
		if len(shortcuts) > 2 {
			shortcuts = shortcuts[:2]
		}
	case styles.LayoutMedium:
		if len(shortcuts) > 5 {
			shortcuts = shortcuts[:5]
		}
	}
	hints := make([]string, 0, len(shortcuts))
	for _, sc := range shortcuts {
		hints = append(hints, t.ShortcutKey.Render(sc.Key)+" "+t.ShortcutDesc.Render(sc.Desc))
	}
	rightText := strings.Join(hints, "  ")

	inner := s.Width - 2
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if gap < 1 {
		rightText = ""
		gap = inner - lipgloss.Width(leftText)
		if gap < 0 {
			leftText = util.TruncateWidth(leftText, inner)
			gap = 0
		}
	}
	return t.StatusBar.Width(s.Width).Render(leftText + strings.Repeat(" ", gap) + rightText)
}
