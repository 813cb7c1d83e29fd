// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and usage text for pocketllm.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdSessions
	CmdChat
	CmdMessages
	CmdExport
	CmdImport
	CmdAdmin
	CmdMockServer
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:        "tui",
	CmdLogin:      "login",
	CmdRegister:   "register",
	CmdLogout:     "logout",
	CmdWhoami:     "whoami",
	CmdSessions:   "sessions",
	CmdChat:       "chat",
	CmdMessages:   "messages",
	CmdExport:     "export",
	CmdImport:     "import",
	CmdAdmin:      "admin",
	CmdMockServer: "mock-server",
	CmdConfig:     "config",
	CmdVersion:    "version",
	CmdHelp:       "help",
}

// String returns the command name as typed on the command line.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	BaseURL    string
	JSON       bool
	Verbose    bool
	Confirm    bool

	// Name is the command word as typed, kept for error messages.
	Name string

	// Parser holds the command's own flags and positional arguments.
	Parser *ArgParser
}

// boolFlags lists the flags that never take a value, so a following
// positional argument is not swallowed.
var boolFlags = []string{"json", "verbose", "v", "confirm", "y", "yes", "clear", "no-flags", "require-auth", "force", "help", "h"}

const usageText = `pocketllm - terminal client for the PocketLLM chat backend

Usage:
  pocketllm                                 Start the TUI (default)
  pocketllm tui                             Start the TUI
  pocketllm login [email]                   Sign in and store the token
  pocketllm register [email]                Create an account and sign in
  pocketllm logout                          Forget stored credentials
  pocketllm whoami                          Show the signed-in user

  pocketllm sessions [list]                 List your sessions
  pocketllm sessions create [title]         Create a session
  pocketllm sessions rename <id> <title>    Rename a session
  pocketllm sessions delete <id>            Delete a session

  pocketllm chat [session]                  Line-editing chat REPL
  pocketllm messages <session>              Print a session's messages
      --filter pinned|rated                 Only pinned or rated messages
      --search <query>                      Server-side search
  pocketllm export <session>                Write a transcript
      --format json|md                      Output format (default json)
      --output <dir>                        Output directory
  pocketllm import <session> <file>         Re-create messages from an export
      --clear                               Delete existing messages first
      --no-flags                            Skip restoring ratings and pins

  pocketllm admin [stats]                   Show backend statistics
  pocketllm admin clear-cache               Clear the response cache
  pocketllm mock-server [--addr :8000]      Run the in-memory development backend
      --latency <dur>                       Delay every response
      --require-auth                        Reject requests without a token

  pocketllm config [show|path]              Show the configuration or its path
  pocketllm config init [--force]           Write a default config file

  pocketllm version                         Show version information
  pocketllm help                            Show this help

Global flags:
  --config <path>     Config file (default ~/.pocketllm/config.toml)
  --base-url <url>    Backend URL (overrides config)
  --json              Machine-readable output
  --confirm, -y       Approve destructive actions without prompting
  -v, --verbose       Debug logging

Version %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "pocketllm version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args) {
	p := NewArgParser(argv, boolFlags...)
	args := Args{
		ConfigPath: p.Flag("config"),
		BaseURL:    p.Flag("base-url"),
		JSON:       p.BoolFlag("json"),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
		Confirm:    p.BoolFlag("confirm") || p.BoolFlag("y") || p.BoolFlag("yes"),
	}

	if p.PositionalCount() == 0 {
		if p.BoolFlag("help") || p.BoolFlag("h") {
			return CmdHelp, args
		}
		args.Parser = p
		return CmdTUI, args
	}

	args.Name = strings.ToLower(p.Subcommand())
	args.Parser = p.Shift()

	switch args.Name {
	case "tui":
		return CmdTUI, args
	case "login", "signin":
		return CmdLogin, args
	case "register", "signup":
		return CmdRegister, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami":
		return CmdWhoami, args
	case "sessions", "session":
		return CmdSessions, args
	case "chat":
		return CmdChat, args
	case "messages", "msgs":
		return CmdMessages, args
	case "export":
		return CmdExport, args
	case "import":
		return CmdImport, args
	case "admin":
		return CmdAdmin, args
	case "mock-server", "mockserver":
		return CmdMockServer, args
	case "config":
		return CmdConfig, args
	case "version", "--version":
		return CmdVersion, args
	case "help":
		return CmdHelp, args
	default:
		return CmdUnknown, args
	}
}
