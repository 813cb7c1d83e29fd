// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Formatting and lookup helpers shared by the commands.

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// resolveSession finds a session by id, by 1-based position in the listing,
// or by exact title.
func resolveSession(dir *session.Directory, ref string) (model.Session, error) {
	if ref == "" {
		return model.Session{}, &UsageError{Command: "session", Reason: "session id is required"}
	}
	if s, ok := dir.Get(ref); ok {
		return s, nil
	}
	sessions := dir.Sessions()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1], nil
	}
	for _, s := range sessions {
		if strings.EqualFold(s.Title, ref) {
			return s, nil
		}
	}
	return model.Session{}, fmt.Errorf("session %q: %w", ref, model.ErrNotFound)
}

// badges renders the pin, rating and cached markers of m.
func badges(m model.Message, cached bool) string {
	var parts []string
	if m.Pinned {
		parts = append(parts, "[pin]")
	}
	switch m.Rating {
	case model.RatingUp:
		parts = append(parts, "[+]")
	case model.RatingDown:
		parts = append(parts, "[-]")
	}
	if cached {
		parts = append(parts, "[cached]")
	}
	return strings.Join(parts, " ")
}

// printMessage writes one transcript entry.
func printMessage(w io.Writer, m model.Message, cached bool) {
	label := UserStyle.Render("You")
	if m.Role == model.RoleAssistant {
		label = AssistantStyle.Render("Assistant")
	}
	meta := DimStyle.Render(formatTime(m.CreatedAt) + "  " + m.ID)
	if b := badges(m, cached); b != "" {
		meta += " " + WarningStyle.Render(b)
	}
	fmt.Fprintf(w, "%s  %s\n%s\n\n", label, meta, m.Content)
}

// printSessions writes the session table.
func printSessions(w io.Writer, sessions []model.Session, active string) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No sessions yet. Create one with 'pocketllm sessions create'."))
		return
	}
	for i, s := range sessions {
		marker := " "
		if s.ID == active {
			marker = "*"
		}
		title := util.PadWidth(util.TruncateWidth(s.DisplayTitle(), 32), 32)
		fmt.Fprintf(w, "%s %3d  %s  %s  %s\n", marker, i+1, title,
			DimStyle.Render(formatTime(s.UpdatedAt)), DimStyle.Render(s.ID))
	}
}
