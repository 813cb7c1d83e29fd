// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// admin_cmd.go - Backend statistics and cache management.
//
// Usage:
//
//	pocketllm admin [stats] [--watch SECONDS]
//	pocketllm admin clear-cache [--confirm]

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/admin"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// HandleAdmin dispatches the admin subcommands.
func HandleAdmin(ctx context.Context, env *Env) error {
	p := env.Args.Parser
	switch sub := p.Subcommand(); sub {
	case "", "stats":
		if p.HasFlag("watch") {
			return adminWatch(ctx, env)
		}
		return adminStats(ctx, env)
	case "clear-cache", "clear":
		return adminClearCache(ctx, env)
	default:
		return &UsageError{Command: "admin", Reason: fmt.Sprintf("unknown subcommand %q", sub), Example: "pocketllm admin stats"}
	}
}

func adminStats(ctx context.Context, env *Env) error {
	stats, err := env.Admin().Stats(ctx)
	if err != nil {
		return err
	}
	return env.emit("admin stats", stats, func(w io.Writer) {
		printStats(w, stats)
	})
}

// adminWatch polls until ctx is cancelled (ctrl+c).
func adminWatch(ctx context.Context, env *Env) error {
	interval := time.Duration(env.Config.UI.AdminPollSeconds) * time.Second
	if secs, err := env.Args.Parser.FlagInt("watch"); err == nil && secs > 0 {
		interval = time.Duration(secs) * time.Second
	}

	poller := admin.NewPoller(env.Admin(), interval, func(u admin.Update) {
		if env.Args.JSON {
			_ = NewJSONResponse("admin stats", u.Stats).Print(env.Out)
			return
		}
		fmt.Fprintln(env.Out, DimStyle.Render(u.At.Format(time.TimeOnly)))
		if u.HasData {
			printStats(env.Out, u.Stats)
		}
		if u.Message != "" {
			fmt.Fprintln(env.Out, ErrorStyle.Render(u.Message))
		}
		fmt.Fprintln(env.Out)
	})
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func adminClearCache(ctx context.Context, env *Env) error {
	if err := env.Admin().ClearCache(ctx, env.Prompter()); err != nil {
		return err
	}
	return env.emit("admin clear-cache", map[string]bool{"cleared": true}, func(w io.Writer) {
		fmt.Fprintf(w, "%s Cache cleared\n", SuccessStyle.Render("[OK]"))
	})
}

func printStats(w io.Writer, s model.Stats) {
	modelState := ErrorStyle.Render("not loaded")
	if s.ModelLoaded {
		modelState = SuccessStyle.Render("loaded")
	}
	fmt.Fprintln(w, TitleStyle.Render("System Stats"))
	fmt.Fprintln(w, RenderField("Uptime", s.Uptime().Round(time.Second).String()))
	fmt.Fprintln(w, RenderField("Requests", strconv.FormatInt(s.TotalRequests, 10)))
	fmt.Fprintln(w, RenderField("Avg latency", strconv.FormatFloat(s.AvgLatencyMs, 'f', 1, 64)+" ms"))
	fmt.Fprintln(w, RenderField("Cache hit rate", strconv.FormatFloat(s.CacheHitRate*100, 'f', 1, 64)+"%"))
	fmt.Fprintln(w, RenderField("Cache hits", fmt.Sprintf("%d / %d misses", s.CacheHits, s.CacheMisses)))
	fmt.Fprintln(w, RenderField("Tokens", strconv.FormatInt(s.TotalTokensGenerated, 10)))
	fmt.Fprintln(w, RenderLabel("Model")+modelState+" "+DimStyle.Render(s.ModelPath))
}
