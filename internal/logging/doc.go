// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the process-wide structured logger.
//
// The terminal UI owns stdout, so logs go to a file when one is configured
// and are discarded otherwise. CLI commands may log to stderr instead.
//
// # Key Types
//
//   - Options: level, format and destination for the handler
//
// # Usage
//
//	closer, err := logging.Setup(logging.Options{Level: "debug", File: path})
//	defer closer.Close()
//
//	ctx = logging.WithRequestID(ctx, id)
//	logging.FromContext(ctx).Info("request sent", "path", path)
package logging
