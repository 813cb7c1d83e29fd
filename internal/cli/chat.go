// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-editing chat REPL.
//
// Usage:
//
//	pocketllm chat [session]
//
// Without a session argument a new session is created. Lines starting with
// "/" are commands; everything else is sent as a prompt.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/pocketllm-tui/internal/config"
	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of input per call.
type LineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatInput provides input history and line editing for the REPL.
type ChatInput struct {
	line        *liner.State
	historyFile string
}

// NewChatInput creates a liner-backed reader with history persisted in the
// config directory.
func NewChatInput() *ChatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	in := &ChatInput{line: line, historyFile: filepath.Join(configDir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

// Prompt reads a line and records it in the history.
func (c *ChatInput) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (mode 0600) and restores the terminal.
func (c *ChatInput) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	return c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// HandleChat runs the chat REPL on the terminal.
func HandleChat(ctx context.Context, env *Env) error {
	in := NewChatInput()
	defer in.Close()
	return runChat(ctx, env, in)
}

type chatREPL struct {
	env *Env
	ctl *thread.Controller
	dir *session.Directory
	out io.Writer
}

func runChat(ctx context.Context, env *Env, in LineReader) error {
	dir, _, err := env.Directory(ctx)
	if err != nil {
		return err
	}

	ref := env.Args.Parser.Positional(0)
	var s model.Session
	if ref == "" {
		if s, err = dir.Create(ctx, ""); err != nil {
			return err
		}
	} else if s, err = resolveSession(dir, ref); err != nil {
		return err
	}

	ctl := env.Controller()
	defer ctl.Close()
	dir.SetActive(s.ID)
	unsubTitle := dir.OnTitleChange(ctl.SetTitle)
	defer unsubTitle()

	r := &chatREPL{env: env, ctl: ctl, dir: dir, out: env.Out}
	unsubBus := env.Bus.Subscribe(r.printNotification)
	defer unsubBus()

	if err := ctl.Load(ctx, s.ID); err != nil {
		return err
	}
	r.printHeader()

	for {
		line, err := in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, "/"):
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintf(env.Err, "%s %s\n", ErrorStyle.Render("[Error]"), describe(err))
			}
			if quit {
				return nil
			}
		default:
			r.send(ctx, line)
		}
	}
}

func (r *chatREPL) printHeader() {
	snap := r.ctl.Snapshot()
	title := snap.Title
	if title == "" {
		title = model.UntitledSession
	}
	fmt.Fprintln(r.out, TitleStyle.Render(title))
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("%d messages. Type /help for commands.", len(snap.Messages))))
	fmt.Fprintln(r.out, RenderSeparator())
}

func (r *chatREPL) printNotification(n notify.Notification) {
	style := DimStyle
	switch n.Kind {
	case notify.KindError:
		style = ErrorStyle
	case notify.KindWarning:
		style = WarningStyle
	case notify.KindSuccess:
		style = SuccessStyle
	}
	fmt.Fprintln(r.env.Err, style.Render(n.Message))
}

// send posts a prompt. ctrl+c cancels the request without leaving the REPL.
func (r *chatREPL) send(ctx context.Context, prompt string) {
	sendCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(r.out, DimStyle.Render("Sending..."))
	if err := r.ctl.Send(sendCtx, prompt); err != nil {
		if !errors.Is(err, model.ErrStale) {
			r.env.Log.Debug("send failed", "error", err)
		}
		return
	}
	snap := r.ctl.Snapshot()
	if n := len(snap.Messages); n > 0 {
		last := snap.Messages[n-1]
		printMessage(r.out, last, last.ID == snap.CachedID)
	}
}

// messageAt resolves a 1-based index into the current view.
func (r *chatREPL) messageAt(arg string) (model.Message, error) {
	view := r.ctl.View()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(view) {
		return model.Message{}, &UsageError{Command: "chat", Reason: fmt.Sprintf("no message %q in the current view", arg), Example: "/list"}
	}
	return view[n-1], nil
}

const chatHelp = `Commands:
  /list                 Show the current view with message numbers
  /rate N up|down       Rate message N
  /pin N                Toggle the pin on message N
  /delete N             Delete message N
  /search QUERY         Search this session (empty query leaves search)
  /filter all|pinned|rated
  /title TEXT           Rename this session
  /export [json|md]     Write a transcript
  /clear                Delete every message (asks first)
  /quit                 Leave`

// command runs a slash command and reports whether to leave the REPL.
func (r *chatREPL) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch name {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		fmt.Fprintln(r.out, chatHelp)
	case "/list", "/ls":
		r.list()
	case "/rate":
		m, err := r.messageAt(arg(0))
		if err != nil {
			return false, err
		}
		rating, err := model.ParseRating(arg(1))
		if err != nil {
			return false, err
		}
		return false, r.ctl.Rate(ctx, m.ID, rating)
	case "/pin":
		m, err := r.messageAt(arg(0))
		if err != nil {
			return false, err
		}
		return false, r.ctl.TogglePin(ctx, m.ID)
	case "/delete", "/rm":
		m, err := r.messageAt(arg(0))
		if err != nil {
			return false, err
		}
		return false, r.ctl.DeleteMessage(ctx, m.ID)
	case "/search":
		if err := r.ctl.Search(ctx, strings.Join(args, " ")); err != nil {
			return false, err
		}
		r.list()
	case "/filter":
		f, err := model.ParseFilter(arg(0))
		if err != nil {
			return false, err
		}
		if err := r.ctl.SetFilter(f); err != nil {
			return false, err
		}
		r.list()
	case "/title", "/rename":
		return false, r.dir.Rename(ctx, r.ctl.SessionID(), strings.Join(args, " "))
	case "/export":
		return false, r.export(firstNonEmpty(arg(0), "json"))
	case "/clear":
		err := r.ctl.ClearSession(ctx, r.env.Prompter())
		if errors.Is(err, model.ErrCancelled) {
			fmt.Fprintln(r.out, DimStyle.Render("Cancelled."))
			return false, nil
		}
		return false, err
	default:
		return false, &UsageError{Command: "chat", Reason: fmt.Sprintf("unknown command %s", name), Example: "/help"}
	}
	return false, nil
}

func (r *chatREPL) list() {
	snap := r.ctl.Snapshot()
	if len(snap.View) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render(snap.Empty()))
		return
	}
	for i, m := range snap.View {
		fmt.Fprint(r.out, DimStyle.Render(fmt.Sprintf("#%d ", i+1)))
		printMessage(r.out, m, m.ID == snap.CachedID)
	}
}

func (r *chatREPL) export(format string) error {
	opts := export.DefaultOptions()
	if dir := r.env.Config.Chat.ExportDir; dir != "" {
		opts.OutputDir = dir
	}
	exporter, err := export.ExporterFor(format, opts)
	if err != nil {
		return err
	}
	doc, err := r.ctl.Export()
	if err != nil {
		return err
	}
	path, err := export.WriteFile(doc, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
