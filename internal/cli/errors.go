// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for pocketllm commands.
//
// Handlers always return errors and never print them. main displays the
// error once and exits with the code GetExitCode picks for it.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/config"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	// ExitCancelled indicates the user declined a confirmation.
	ExitCancelled     = 6
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Command string
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Command, e.Reason)
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(command, argName, example string) error {
	return &UsageError{Command: command, Reason: argName + " is required", Example: example}
}

// ErrNotLoggedIn is returned by commands that need stored credentials.
var ErrNotLoggedIn = errors.New("not logged in; run 'pocketllm login' first")

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		displayErrorJSON(w, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), describe(err))
}

func displayErrorJSON(w io.Writer, err error) {
	output := map[string]interface{}{
		"success":    false,
		"error":      describe(err),
		"error_type": errorType(err),
	}
	if code := api.StatusCode(err); code != 0 {
		output["status"] = code
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// describe prefers the backend's own error text for HTTP failures.
func describe(err error) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return api.Describe(err)
	}
	return err.Error()
}

func errorType(err error) string {
	var (
		usage   *UsageError
		netErr  *api.NetworkError
		httpErr *api.HTTPError
		parse   *api.ParseError
		format  *model.FormatError
	)
	switch {
	case errors.As(err, &usage):
		return "usage_error"
	case model.IsValidation(err):
		return "validation_error"
	case errors.As(err, &format):
		return "format_error"
	case errors.As(err, &netErr):
		return "network_error"
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &parse):
		return "parse_error"
	default:
		return "error"
	}
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usage  *UsageError
		cfgErr config.ValidateErrors
		netErr *api.NetworkError
	)
	switch {
	case errors.As(err, &usage), model.IsValidation(err), errors.Is(err, ErrConfirmationRequired):
		return ExitUsageError
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.Is(err, ErrNotLoggedIn), api.IsUnauthorized(err):
		return ExitAuthError
	case errors.Is(err, model.ErrCancelled):
		return ExitCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &netErr):
		return ExitNetworkError
	case errors.Is(err, model.ErrNotFound), api.IsNotFound(err):
		return ExitNotFoundError
	}
	return ExitGeneralError
}
