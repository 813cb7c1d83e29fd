// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the PocketLLM TUI.

A Theme is a plain value built once at startup and passed to every view that
renders. Nothing in this package is mutable global state.

# Palette (palette.go)

A Palette names every color slot the views use:

	Primary, Accent        - brand and selection colors
	Success, Error,
	Warning, Info          - notification and status colors
	Surface, SurfaceDim,
	Overlay                - layered backgrounds and borders
	TextPrimary,
	TextSecondary,
	TextMuted              - text hierarchy
	User, Assistant        - message author colors
	Pinned, Cached, Rated  - message badge colors

DarkPalette and LightPalette are the two built-in sets.

# Spacing

Spacing is a four-step scale (XS, SM, MD, LG) in terminal cells used for
padding and gaps.

# Theme (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // "dark", "light" or "auto"
	header := theme.HeaderTitle.Render(title)

"auto" asks the terminal for its background through termenv.
*/
package styles
