// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// mock_cmd.go - In-memory development backend.
//
// Usage:
//
//	pocketllm mock-server [--addr :8000] [--latency 200ms] [--require-auth]

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/mockserver"
)

// DefaultMockAddr is where the mock backend listens by default.
const DefaultMockAddr = ":8000"

// HandleMockServer serves the mock backend until interrupted.
func HandleMockServer(ctx context.Context, args Args, stdio Stdio) error {
	p := args.Parser
	var latency time.Duration
	if raw := p.Flag("latency"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return &UsageError{Command: "mock-server", Reason: fmt.Sprintf("invalid --latency %q", raw), Example: "pocketllm mock-server --latency 250ms"}
		}
		latency = d
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mockserver.New(mockserver.Options{
		RequireAuth: p.BoolFlag("require-auth"),
		Latency:     latency,
	})
	return srv.ListenAndServe(ctx, p.FlagOrDefault("addr", DefaultMockAddr), func(addr net.Addr) {
		fmt.Fprintf(stdio.Out, "%s Mock backend listening on http://%s\n", SuccessStyle.Render("[OK]"), addr)
		fmt.Fprintln(stdio.Out, DimStyle.Render("Press ctrl+c to stop."))
	})
}
