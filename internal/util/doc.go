// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across pocketllm.
//
// # Key Functions
//
// Text:
//   - NormalizeText: NFC normalization plus whitespace trimming
//   - IsBlank: true for empty or whitespace-only input
//   - TruncateWidth: display-width aware truncation with ellipsis
//   - SingleLine: collapses newlines for one-line previews
//
// Files:
//   - WriteFileAtomic: streams into a temp file, fsyncs, then renames
//   - AtomicWriteFile: WriteFileAtomic for an in-memory byte slice
//
// # Usage
//
//	title := util.NormalizeText(raw)
//	if util.IsBlank(title) { ... }
//	label := util.TruncateWidth(title, 24)
package util
