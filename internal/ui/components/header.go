// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// CHAT HEADER
// =============================================================================

// filterTabs is the display order of the filter tabs.
var filterTabs = []struct {
	filter model.Filter
	label  string
}{
	{model.FilterAll, "All"},
	{model.FilterPinned, "Pinned"},
	{model.FilterRated, "Rated"},
	{model.FilterSearch, "Search"},
}

// Header renders the chat pane header: session title, filter tabs and the
// active search query.
type Header struct {
	Title  string
	Filter model.Filter
	Query  string
	Width  int
	theme  *styles.Theme
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{theme: theme, Filter: model.FilterAll, Width: 80}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	width := h.Width
	if width < 20 {
		width = 20
	}

	tabs := h.renderTabs()
	titleWidth := width - lipgloss.Width(tabs) - 4
	if titleWidth < 8 {
		titleWidth = 8
	}
	title := h.Title
	if title == "" {
		title = model.UntitledSession
	}
	titleText := t.HeaderTitle.Render(util.TruncateWidth(util.SingleLine(title), titleWidth))

	gap := width - lipgloss.Width(titleText) - lipgloss.Width(tabs) - 2
	if gap < 1 {
		gap = 1
	}
	line := titleText + strings.Repeat(" ", gap) + tabs

	if h.Filter == model.FilterSearch && h.Query != "" {
		query := t.ShortcutDesc.Render("search: ") + t.StatsValue.Render(util.TruncateWidth(h.Query, width-12))
		line = lipgloss.JoinVertical(lipgloss.Left, line, query)
	}
	return t.Header.Width(width).Render(line)
}

func (h *Header) renderTabs() string {
	t := h.theme
	parts := make([]string, 0, len(filterTabs))
	for _, tab := range filterTabs {
		if tab.filter == model.FilterSearch && h.Filter != model.FilterSearch {
			continue
		}
		if tab.filter == h.Filter {
			parts = append(parts, t.FilterTabActive.Render(tab.label))
		} else {
			parts = append(parts, t.FilterTab.Render(tab.label))
		}
	}
	return strings.Join(parts, "")
}
