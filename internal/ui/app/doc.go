// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package app is the Bubble Tea program of the pocketllm TUI.

The Model wires the session directory, the thread controller, the admin
service and the notification bus to the components package. Every backend
call runs inside a tea.Cmd; state changes made on those goroutines reach the
event loop through coalescing mailboxes that keep only the newest value, and
thread snapshots older than the one already shown are dropped by version.

# Key Types

  - Model: the tea.Model. Build it with New and run it with tea.NewProgram.
  - Deps: collaborators injected by the CLI.
  - KeyMap: key bindings, shown in the status bar.

# Usage

	m := app.New(app.Deps{
		Directory: dir,
		Thread:    ctl,
		Admin:     admin.NewService(client, bus),
		Bus:       bus,
		Theme:     styles.NewTheme(cfg.UI.Theme),
		Identity:  identity,
	})
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package app
