// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of named colors a Theme is built from.
type Palette struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color

	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Info    lipgloss.Color

	Surface    lipgloss.Color
	SurfaceDim lipgloss.Color
	Overlay    lipgloss.Color

	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color
	TextInverse   lipgloss.Color

	User      lipgloss.Color
	Assistant lipgloss.Color

	Pinned lipgloss.Color
	Cached lipgloss.Color
	Rated  lipgloss.Color
}

// DarkPalette is the Catppuccin Mocha based palette.
func DarkPalette() Palette {
	return Palette{
		Primary:       "#A78BFA",
		Accent:        "#22D3EE",
		Success:       "#34D399",
		Error:         "#FB7185",
		Warning:       "#FBBF24",
		Info:          "#22D3EE",
		Surface:       "#1E1E2E",
		SurfaceDim:    "#181825",
		Overlay:       "#313244",
		TextPrimary:   "#CDD6F4",
		TextSecondary: "#A6ADC8",
		TextMuted:     "#6C7086",
		TextInverse:   "#1E1E2E",
		User:          "#3B82F6",
		Assistant:     "#A78BFA",
		Pinned:        "#FBBF24",
		Cached:        "#34D399",
		Rated:         "#22D3EE",
	}
}

// LightPalette is the Catppuccin Latte based palette.
func LightPalette() Palette {
	return Palette{
		Primary:       "#7C3AED",
		Accent:        "#0891B2",
		Success:       "#059669",
		Error:         "#E11D48",
		Warning:       "#D97706",
		Info:          "#0891B2",
		Surface:       "#FFFFFF",
		SurfaceDim:    "#F5F5F5",
		Overlay:       "#E5E5E5",
		TextPrimary:   "#1F2937",
		TextSecondary: "#6B7280",
		TextMuted:     "#9CA3AF",
		TextInverse:   "#FFFFFF",
		User:          "#1D4ED8",
		Assistant:     "#5B4B8A",
		Pinned:        "#B45309",
		Cached:        "#047857",
		Rated:         "#0E7490",
	}
}

// =============================================================================
// SPACING
// =============================================================================

// Spacing is the padding and gap scale in terminal cells.
type Spacing struct {
	XS int
	SM int
	MD int
	LG int
}

// DefaultSpacing is the scale used by both built-in themes.
func DefaultSpacing() Spacing {
	return Spacing{XS: 0, SM: 1, MD: 2, LG: 4}
}

// =============================================================================
// INDICATORS
// =============================================================================

// Indicators are ASCII markers shown next to colors so state never depends
// on color alone.
type Indicators struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pinned  string
	Cached  string
	Active  string
}

// DefaultIndicators returns the ASCII marker set.
func DefaultIndicators() Indicators {
	return Indicators{
		Success: "[OK]",
		Error:   "[X]",
		Warning: "[!]",
		Info:    "[i]",
		Pinned:  "[pin]",
		Cached:  "[cached]",
		Active:  ">",
	}
}
