// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the rendering pieces of the pocketllm TUI.

Components hold display state only. They never talk to the backend; the app
model feeds them snapshots from the session directory and the thread
controller and calls View.

# Key Types

  - Sidebar (sidebar.go): session list with the active marker and a cursor.
  - Header (header.go): session title, filter tabs and the search query.
  - MessageList / MessageItem (message.go): the visible projection with
    pinned, rated and cached badges.
  - StatusBar (statusbar.go): user, request state and key hints.
  - StatsView (stats_view.go): backend statistics dashboard.
  - Spinner (spinner.go): "Sending..." indicator.
  - ToastManager (toast.go): auto-dismissing toasts fed by notify.Bus.

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	toasts := components.NewToastManager()
	detach := toasts.Attach(bus)
	defer detach()

	list := components.NewMessageList(theme)
	list.SetMessages(snap.View, snap.CachedID, snap.Empty())
	view := list.View()

Every component takes the *styles.Theme explicitly.
*/
package components
