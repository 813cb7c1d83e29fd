// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify provides the process-wide notification bus.
//
// A single Bus is created at startup and handed to every component that
// reports transient outcomes. The toast stack in the UI and the CLI's stderr
// printer are both just subscribers.
//
// # Usage
//
//	bus := notify.NewBus()
//	unsubscribe := bus.Subscribe(func(n notify.Notification) {
//	    fmt.Println(n.Kind, n.Message)
//	})
//	defer unsubscribe()
//
//	bus.Error("Failed to rate message")
package notify
