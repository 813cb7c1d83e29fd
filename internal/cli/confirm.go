// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Unified confirmation handling for pocketllm commands.
//
// Destructive commands all follow the same pattern:
//  1. If --confirm was given, proceed without prompting
//  2. If --json mode, require --confirm (no interactive prompts)
//  3. If stdin is not a TTY, require --confirm (can't prompt)
//  4. Otherwise, ask y/N on the terminal

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/pocketllm-tui/internal/session"
)

// ErrConfirmationRequired is returned when a prompt would be needed but
// cannot be shown.
var ErrConfirmationRequired = errors.New("confirmation required: use --confirm")

// ConfirmationOptions configures a Prompter.
type ConfirmationOptions struct {
	// ConfirmFlag indicates --confirm was passed.
	ConfirmFlag bool
	// JSONMode indicates --json was passed.
	JSONMode bool
}

// Prompter asks y/N questions on a terminal. It implements
// session.Confirmer so it can be handed straight to destructive operations.
type Prompter struct {
	opts ConfirmationOptions
	in   *bufio.Reader
	out  io.Writer
	tty  func() bool
}

var _ session.Confirmer = (*Prompter)(nil)

// NewPrompter creates a Prompter reading answers from in and writing
// prompts to out. isTTY reports whether in is interactive.
func NewPrompter(opts ConfirmationOptions, in io.Reader, out io.Writer, isTTY func() bool) *Prompter {
	if isTTY == nil {
		isTTY = func() bool { return false }
	}
	return &Prompter{opts: opts, in: bufio.NewReader(in), out: out, tty: isTTY}
}

// Confirm implements session.Confirmer.
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p.opts.ConfirmFlag {
		return true, nil
	}
	if p.opts.JSONMode {
		return false, fmt.Errorf("%w (no prompts in JSON mode)", ErrConfirmationRequired)
	}
	if !p.tty() {
		return false, fmt.Errorf("%w (stdin is not a terminal)", ErrConfirmationRequired)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	answer, err := p.readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return isYes(answer), nil
}

// Ask prints question and returns the trimmed answer.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func isYes(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
