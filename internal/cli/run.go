// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Command dispatch.

package cli

import (
	"context"
	"fmt"
)

// handler runs one command against a wired Env.
type handler func(ctx context.Context, env *Env) error

var handlers = map[Command]handler{
	CmdTUI:      RunTUI,
	CmdLogin:    HandleLogin,
	CmdRegister: HandleRegister,
	CmdLogout:   HandleLogout,
	CmdWhoami:   HandleWhoami,
	CmdSessions: HandleSessions,
	CmdChat:     HandleChat,
	CmdMessages: HandleMessages,
	CmdExport:   HandleExport,
	CmdImport:   HandleImport,
	CmdAdmin:    HandleAdmin,
}

// Main runs cmd and returns the process exit code.
func Main(ctx context.Context, cmd Command, args Args, stdio Stdio) int {
	switch cmd {
	case CmdHelp:
		PrintUsage(stdio.Out)
		return ExitSuccess
	case CmdVersion:
		if args.JSON {
			_ = NewJSONResponse("version", VersionData{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}).Print(stdio.Out)
			return ExitSuccess
		}
		PrintVersion(stdio.Out)
		return ExitSuccess
	case CmdMockServer:
		return finish(stdio, args, HandleMockServer(ctx, args, stdio))
	case CmdConfig:
		return finish(stdio, args, HandleConfig(args, stdio))
	}

	h, ok := handlers[cmd]
	if !ok {
		return finish(stdio, args, &UsageError{
			Command: args.Name,
			Reason:  fmt.Sprintf("unknown command %q", args.Name),
			Example: "pocketllm help",
		})
	}

	env, err := NewEnv(args, stdio)
	if err != nil {
		return finish(stdio, args, err)
	}
	defer env.Close()
	return finish(stdio, args, h(ctx, env))
}

func finish(stdio Stdio, args Args, err error) int {
	if err == nil {
		return ExitSuccess
	}
	DisplayError(stdio.Err, err, args.JSON)
	return GetExitCode(err)
}
