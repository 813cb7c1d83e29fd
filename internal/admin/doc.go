// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package admin reads backend statistics and clears the response cache.
//
// # Key Types
//
//   - Service: one-shot stats and cache operations
//   - Poller: refreshes stats on an interval until cancelled
//   - Update: one poll result
//
// # Usage
//
//	svc := admin.NewService(client, bus)
//	poller := admin.NewPoller(svc, 5*time.Second, func(u admin.Update) {
//	    program.Send(u)
//	})
//	go poller.Run(ctx)
package admin
