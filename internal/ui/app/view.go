// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/ui/components"
)

const maxToastWidth = 48

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	status := m.status.View()
	toasts := m.renderToasts()

	bodyHeight := m.height - lipgloss.Height(status)
	if toasts != "" {
		bodyHeight -= lipgloss.Height(toasts)
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	switch m.mode {
	case modeAdmin:
		body = m.statsView.View()
	case modePrompt:
		body = m.renderDialog(m.promptTitle(), m.prompt.View(), "enter confirm | esc cancel", bodyHeight)
	case modeConfirm:
		body = m.renderDialog("Confirm", m.confirmText, "y yes | n no", bodyHeight)
	default:
		body = m.renderChat()
	}
	body = lipgloss.NewStyle().MaxHeight(bodyHeight).Render(body)

	parts := []string{body}
	if toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderChat() string {
	var pane []string
	pane = append(pane, m.header.View())
	if m.snap.Banner != "" {
		pane = append(pane, m.theme.Banner.Render(m.snap.Banner))
	}
	pane = append(pane, m.list.View())
	if m.spinner.IsActive() {
		pane = append(pane, m.spinner.View())
	}
	pane = append(pane, m.input.View())
	main := lipgloss.JoinVertical(lipgloss.Left, pane...)

	if m.width < 60 {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
}

func (m Model) renderDialog(title, content, hint string, height int) string {
	t := m.theme
	width := m.width - 8
	if width > 60 {
		width = 60
	}
	if width < 20 {
		width = 20
	}
	box := t.Dialog.Width(width).Render(strings.Join([]string{
		t.DialogTitle.Render(title),
		"",
		content,
		"",
		t.ShortcutDesc.Render(hint),
	}, "\n"))
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderToasts() string {
	list := m.toasts.Toasts()
	if len(list) == 0 {
		return ""
	}
	width := maxToastWidth
	if m.width-2 < width {
		width = m.width - 2
	}
	stack := components.RenderToastStack(m.theme, list, width, 0, time.Now())
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
}
