// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/pocketllm-tui/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the key bindings of the TUI.
type KeyMap struct {
	Quit       key.Binding
	NextFocus  key.Binding
	Up         key.Binding
	Down       key.Binding
	Submit     key.Binding
	Back       key.Binding
	NewSession key.Binding
	Admin      key.Binding

	// Sidebar
	Rename        key.Binding
	DeleteSession key.Binding
	Refresh       key.Binding

	// Message pane
	RateUp        key.Binding
	RateDown      key.Binding
	Pin           key.Binding
	DeleteMessage key.Binding
	Copy          key.Binding
	Search        key.Binding
	CycleFilter   key.Binding
	ExportJSON    key.Binding
	ExportMD      key.Binding
	Import        key.Binding
	Clear         key.Binding

	// Dialogs
	Yes        key.Binding
	No         key.Binding
	ClearCache key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
		NextFocus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "down")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send/open")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		NewSession: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("C-n", "new")),
		Admin:      key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("C-a", "stats")),

		Rename:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		DeleteSession: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Refresh:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),

		RateUp:        key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "rate up")),
		RateDown:      key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "rate down")),
		Pin:           key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
		DeleteMessage: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		CycleFilter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		ExportJSON:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		ExportMD:      key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "export md")),
		Import:        key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Clear:         key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear")),

		Yes:        key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:         key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
		ClearCache: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear cache")),
	}
}

// shortcuts converts bindings into status bar hints.
func shortcuts(bindings ...key.Binding) []components.Shortcut {
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}

// hintsFor returns the hints for the focused area.
func (k KeyMap) hintsFor(f focus) []components.Shortcut {
	switch f {
	case focusSidebar:
		return shortcuts(k.Submit, k.NewSession, k.Rename, k.DeleteSession, k.NextFocus, k.Admin, k.Quit)
	case focusMessages:
		return shortcuts(k.RateUp, k.RateDown, k.Pin, k.DeleteMessage, k.Copy, k.Search, k.CycleFilter, k.ExportJSON, k.Import, k.Clear, k.NextFocus)
	default:
		return shortcuts(k.Submit, k.NextFocus, k.NewSession, k.Admin, k.Quit)
	}
}
