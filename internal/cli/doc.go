// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the pocketllm command line and runs its commands.
//
// Every command other than help, version and mock-server runs against an
// Env: the loaded configuration, the credential store, the REST client and
// the notification bus. Handlers return errors and never print them; Main
// prints the error once and maps it to an exit code.
//
// # Key Types
//
//   - Command: the command words pocketllm understands
//   - Args: global flags plus an ArgParser for the command's own arguments
//   - Env: the wired runtime handed to each handler
//   - Prompter: y/N confirmation that honors --confirm and --json
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	os.Exit(cli.Main(ctx, cmd, args, cli.OSStdio()))
//
// All listing commands support --json, which wraps the result in a
// JSONResponse envelope.
package cli
