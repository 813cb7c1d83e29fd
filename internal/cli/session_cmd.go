// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session_cmd.go - Session management commands.
//
// Usage:
//
//	pocketllm sessions [list]
//	pocketllm sessions create [title]
//	pocketllm sessions rename <id> <title>
//	pocketllm sessions delete <id> [--confirm]

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// HandleSessions dispatches the sessions subcommands.
func HandleSessions(ctx context.Context, env *Env) error {
	p := env.Args.Parser
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return sessionsList(ctx, env)
	case "create", "new":
		return sessionsCreate(ctx, env, JoinPositionalArgs(p, 1))
	case "rename":
		if p.PositionalCount() < 3 {
			return ErrMissingArgument("sessions rename", "id and title", "pocketllm sessions rename 2 Trip planning")
		}
		return sessionsRename(ctx, env, p.Positional(1), JoinPositionalArgs(p, 2))
	case "delete", "rm":
		if p.Positional(1) == "" {
			return ErrMissingArgument("sessions delete", "session id", "pocketllm sessions delete 2 --confirm")
		}
		return sessionsDelete(ctx, env, p.Positional(1))
	default:
		return &UsageError{Command: "sessions", Reason: fmt.Sprintf("unknown subcommand %q", sub), Example: "pocketllm sessions list"}
	}
}

func sessionsList(ctx context.Context, env *Env) error {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return err
	}
	sessions := dir.Sessions()
	return env.emit("sessions list", sessions, func(w io.Writer) {
		printSessions(w, sessions, "")
	})
}

func sessionsCreate(ctx context.Context, env *Env, title string) error {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return err
	}
	s, err := dir.Create(ctx, title)
	if err != nil {
		return err
	}
	return env.emit("sessions create", s, func(w io.Writer) {
		fmt.Fprintf(w, "%s Created %q (%s)\n", SuccessStyle.Render("[OK]"), s.DisplayTitle(), s.ID)
	})
}

func sessionsRename(ctx context.Context, env *Env, ref, title string) error {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return err
	}
	s, err := resolveSession(dir, ref)
	if err != nil {
		return err
	}
	if err := dir.Rename(ctx, s.ID, title); err != nil {
		return err
	}
	renamed, _ := dir.Get(s.ID)
	return env.emit("sessions rename", renamed, func(w io.Writer) {
		fmt.Fprintf(w, "%s Renamed to %q\n", SuccessStyle.Render("[OK]"), renamed.DisplayTitle())
	})
}

func sessionsDelete(ctx context.Context, env *Env, ref string) error {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return err
	}
	s, err := resolveSession(dir, ref)
	if err != nil {
		return err
	}
	if err := dir.Delete(ctx, s.ID, env.Prompter()); err != nil {
		return err
	}
	return env.emit("sessions delete", map[string]string{"id": s.ID}, func(w io.Writer) {
		fmt.Fprintf(w, "%s Deleted %q\n", SuccessStyle.Render("[OK]"), s.DisplayTitle())
	})
}

// loadSession resolves ref and loads it into a fresh controller. The caller
// closes the controller.
func loadSession(ctx context.Context, env *Env, ref string) (*thread.Controller, *session.Directory, error) {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := resolveSession(dir, ref)
	if err != nil {
		return nil, nil, err
	}
	dir.SetActive(s.ID)
	ctl := env.Controller()
	if err := ctl.Load(ctx, s.ID); err != nil {
		ctl.Close()
		return nil, nil, err
	}
	return ctl, dir, nil
}
