// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

// =============================================================================
// ADMIN STATS VIEW
// =============================================================================

// StatsView renders the backend statistics dashboard.
type StatsView struct {
	theme   *styles.Theme
	stats   model.Stats
	hasData bool
	errText string
	updated time.Time
	width   int
	height  int
}

// NewStatsView creates an empty dashboard.
func NewStatsView(theme *styles.Theme) *StatsView {
	return &StatsView{theme: theme}
}

// SetSize updates the dashboard dimensions.
func (v *StatsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// Update records a poll result. Failed polls keep the last good stats and
// show errText above them.
func (v *StatsView) Update(stats model.Stats, hasData bool, errText string, at time.Time) {
	if hasData {
		v.stats = stats
		v.hasData = true
	}
	v.errText = errText
	v.updated = at
}

// View renders the dashboard.
func (v *StatsView) View() string {
	t := v.theme
	var b strings.Builder

	b.WriteString(t.DialogTitle.Render("System Stats"))
	b.WriteString("\n")

	if v.errText != "" {
		b.WriteString(t.Banner.Render(v.errText))
		b.WriteString("\n")
	}
	if !v.hasData {
		if v.errText == "" {
			b.WriteString(t.Empty.Render("Loading stats..."))
		}
		return t.Dialog.Render(strings.TrimRight(b.String(), "\n"))
	}

	s := v.stats
	modelState := t.StatsBad.Render("not loaded")
	if s.ModelLoaded {
		modelState = t.StatsGood.Render("loaded")
	}

	rows := [][2]string{
		{"Uptime", formatUptime(s.Uptime())},
		{"Total requests", fmtNumber(int(s.TotalRequests))},
		{"Avg latency", fmt.Sprintf("%.1f ms", s.AvgLatencyMs)},
		{"Cache hit rate", fmtPercent(s.CacheHitRate * 100)},
		{"Cache hits / misses", fmtNumber(int(s.CacheHits)) + " / " + fmtNumber(int(s.CacheMisses))},
		{"Tokens generated", fmtNumber(int(s.TotalTokensGenerated))},
	}
	for _, r := range rows {
		b.WriteString(t.StatsLabel.Render(fmt.Sprintf("%-20s", r[0])))
		b.WriteString(t.StatsValue.Render(r[1]))
		b.WriteString("\n")
	}
	b.WriteString(t.StatsLabel.Render(fmt.Sprintf("%-20s", "Model")))
	b.WriteString(modelState)
	if s.ModelPath != "" {
		b.WriteString(" " + t.ShortcutDesc.Render(s.ModelPath))
	}
	b.WriteString("\n")

	if !v.updated.IsZero() {
		b.WriteString("\n")
		b.WriteString(t.ShortcutDesc.Render("Updated " + v.updated.Local().Format("15:04:05")))
	}
	b.WriteString("\n")
	b.WriteString(t.ShortcutKey.Render("c") + " " + t.ShortcutDesc.Render("clear cache") + "  " +
		t.ShortcutKey.Render("esc") + " " + t.ShortcutDesc.Render("back"))

	return t.Dialog.Render(b.String())
}

// formatUptime renders d as "1d 2h 3m" or "45s".
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return toStr(int(d.Seconds())) + "s"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	mins := int(d/time.Minute) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, toStr(days)+"d")
	}
	if days > 0 || hours > 0 {
		parts = append(parts, toStr(hours)+"h")
	}
	parts = append(parts, toStr(mins)+"m")
	return strings.Join(parts, " ")
}
