// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// messages_cmd.go - Reading, exporting and importing a session's messages.
//
// Usage:
//
//	pocketllm messages <session> [--filter pinned|rated] [--search q]
//	pocketllm export <session> [--format json|md] [--output DIR]
//	pocketllm import <session> <file> [--clear] [--no-flags]

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// HandleMessages prints the messages of a session, optionally filtered or
// searched.
func HandleMessages(ctx context.Context, env *Env) error {
	p := env.Args.Parser
	ref := p.Positional(0)
	if ref == "" {
		return ErrMissingArgument("messages", "session", "pocketllm messages 1 --filter pinned")
	}

	ctl, _, err := loadSession(ctx, env, ref)
	if err != nil {
		return err
	}
	defer ctl.Close()

	if q := p.Flag("search"); q != "" {
		if err := ctl.Search(ctx, q); err != nil {
			return err
		}
	} else if f := p.Flag("filter"); f != "" {
		filter, err := model.ParseFilter(f)
		if err != nil {
			return err
		}
		if err := ctl.SetFilter(filter); err != nil {
			return err
		}
	}

	snap := ctl.Snapshot()
	return env.emit("messages", snap.View, func(w io.Writer) {
		fmt.Fprintln(w, TitleStyle.Render(snap.Title))
		fmt.Fprintln(w, RenderSeparator())
		if len(snap.View) == 0 {
			fmt.Fprintln(w, DimStyle.Render(snap.Empty()))
			return
		}
		for _, m := range snap.View {
			printMessage(w, m, m.ID == snap.CachedID)
		}
	})
}

// HandleExport writes a session transcript to a file.
func HandleExport(ctx context.Context, env *Env) error {
	p := env.Args.Parser
	ref := p.Positional(0)
	if ref == "" {
		return ErrMissingArgument("export", "session", "pocketllm export 1 --format md")
	}
	format := p.FlagOrDefault("format", "json")

	opts := export.DefaultOptions()
	if dir := p.FlagOrDefault("output", env.Config.Chat.ExportDir); dir != "" {
		opts.OutputDir = dir
	}
	exporter, err := export.ExporterFor(format, opts)
	if err != nil {
		return &UsageError{Command: "export", Reason: err.Error(), Example: "pocketllm export 1 --format md"}
	}

	ctl, _, err := loadSession(ctx, env, ref)
	if err != nil {
		return err
	}
	defer ctl.Close()

	doc, err := ctl.Export()
	if err != nil {
		return err
	}
	path, err := export.WriteFile(doc, exporter, opts)
	if err != nil {
		return err
	}

	data := ExportData{Path: path, Format: format, Messages: len(doc.Messages)}
	return env.emit("export", data, func(w io.Writer) {
		fmt.Fprintf(w, "%s Exported %d messages to %s\n", SuccessStyle.Render("[OK]"), data.Messages, path)
	})
}

// HandleImport re-creates the messages of an exported document in a session.
func HandleImport(ctx context.Context, env *Env) error {
	p := env.Args.Parser
	ref, file := p.Positional(0), p.Positional(1)
	if ref == "" || file == "" {
		return ErrMissingArgument("import", "session and file", "pocketllm import 1 chat.json --clear")
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	doc, err := export.Decode(raw)
	if err != nil {
		return err
	}

	ctl, _, err := loadSession(ctx, env, ref)
	if err != nil {
		return err
	}
	defer ctl.Close()

	res, err := ctl.Import(ctx, doc, thread.ImportOptions{
		Clear:        p.BoolFlag("clear"),
		Confirm:      env.Prompter(),
		RestoreFlags: !p.BoolFlag("no-flags"),
	})
	if err != nil {
		return err
	}

	data := ImportData{Total: res.Total, Imported: res.Imported, Failed: res.Failed}
	for _, e := range res.Errors {
		data.Errors = append(data.Errors, e.Error())
	}
	if res.ClearErr != nil {
		data.Errors = append(data.Errors, res.ClearErr.Error())
	}
	return env.emit("import", data, func(w io.Writer) {
		style := SuccessStyle
		if res.Failed > 0 || res.ClearErr != nil {
			style = WarningStyle
		}
		fmt.Fprintln(w, style.Render(res.String()))
		for _, e := range data.Errors {
			fmt.Fprintln(w, DimStyle.Render("  "+e))
		}
	})
}
