// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds the palette and every derived style. Build it once and pass
// it to the views.
type Theme struct {
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	Palette    Palette
	Spacing    Spacing
	Indicators Indicators

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	App     lipgloss.Style
	Divider lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar           lipgloss.Style
	SidebarTitle      lipgloss.Style
	SessionItem       lipgloss.Style
	SessionItemActive lipgloss.Style
	SessionCursor     lipgloss.Style
	SessionMeta       lipgloss.Style

	// ==========================================================================
	// CHAT PANE
	// ==========================================================================

	Header          lipgloss.Style
	HeaderTitle     lipgloss.Style
	FilterTab       lipgloss.Style
	FilterTabActive lipgloss.Style
	Banner          lipgloss.Style
	Empty           lipgloss.Style

	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	MessageBody     lipgloss.Style
	MessageSelected lipgloss.Style
	Unconfirmed     lipgloss.Style
	Timestamp       lipgloss.Style
	PinnedBadge     lipgloss.Style
	CachedBadge     lipgloss.Style
	RatedBadge      lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputPrompt  lipgloss.Style
	Sending      lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// TOASTS AND DIALOGS
	// ==========================================================================

	Toast        lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style
	ToastWarning lipgloss.Style
	ToastInfo    lipgloss.Style
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style

	// ==========================================================================
	// ADMIN
	// ==========================================================================

	StatsLabel lipgloss.Style
	StatsValue lipgloss.Style
	StatsGood  lipgloss.Style
	StatsBad   lipgloss.Style
}

// NewTheme builds a theme by name. Unknown names fall back to dark; "auto"
// follows the terminal background.
func NewTheme(name string) *Theme {
	name = strings.ToLower(strings.TrimSpace(name))
	isDark := true
	switch name {
	case ThemeLight:
		isDark = false
	case ThemeAuto:
		isDark = termenv.HasDarkBackground()
	default:
		name = ThemeDark
	}

	palette := DarkPalette()
	if !isDark {
		palette = LightPalette()
	}
	return NewThemeFromPalette(name, palette, isDark)
}

// NewThemeFromPalette builds a theme from an explicit palette.
func NewThemeFromPalette(name string, palette Palette, isDark bool) *Theme {
	t := &Theme{
		Name:         name,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
		Palette:      palette,
		Spacing:      DefaultSpacing(),
		Indicators:   DefaultIndicators(),
	}
	t.initStyles()
	return t
}

// initStyles derives every style from the palette and spacing.
func (t *Theme) initStyles() {
	p, s := t.Palette, t.Spacing

	t.App = lipgloss.NewStyle()
	t.Divider = lipgloss.NewStyle().Foreground(p.Overlay)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(p.Overlay).
		Padding(0, s.SM)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		MarginBottom(s.SM)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(p.TextSecondary)

	t.SessionItemActive = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)

	t.SessionCursor = lipgloss.NewStyle().
		Background(p.Overlay)

	t.SessionMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Chat pane
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Overlay).
		Padding(0, s.SM)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary)

	t.FilterTab = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Padding(0, s.SM)

	t.FilterTabActive = lipgloss.NewStyle().
		Foreground(p.TextInverse).
		Background(p.Accent).
		Bold(true).
		Padding(0, s.SM)

	t.Banner = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true).
		Padding(0, s.SM)

	t.Empty = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true).
		Padding(s.SM, s.MD)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(p.User).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(p.Assistant).
		Bold(true)

	t.MessageBody = lipgloss.NewStyle().
		Foreground(p.TextPrimary).
		PaddingLeft(s.MD)

	t.MessageSelected = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(p.Accent)

	t.Unconfirmed = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	t.PinnedBadge = lipgloss.NewStyle().
		Foreground(p.Pinned).
		Bold(true)

	t.CachedBadge = lipgloss.NewStyle().
		Foreground(p.Cached)

	t.RatedBadge = lipgloss.NewStyle().
		Foreground(p.Rated).
		Bold(true)

	// Input and status
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)

	t.Sending = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		Foreground(p.TextSecondary).
		Padding(0, s.SM)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Toasts and dialogs
	t.Toast = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, s.MD)

	t.ToastSuccess = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	t.ToastError = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	t.ToastWarning = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	t.ToastInfo = lipgloss.NewStyle().Foreground(p.Info).Bold(true)

	t.Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(s.SM, s.MD)

	t.DialogTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		MarginBottom(s.SM)

	// Admin
	t.StatsLabel = lipgloss.NewStyle().Foreground(p.TextMuted)
	t.StatsValue = lipgloss.NewStyle().Foreground(p.TextPrimary).Bold(true)
	t.StatsGood = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	t.StatsBad = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
}

// LayoutMode is the responsive layout class for a terminal width.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar hidden
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// LayoutFor returns the layout mode for width.
func LayoutFor(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	if width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}
