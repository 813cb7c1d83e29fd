// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export converts a chat session to and from portable documents.
//
// A Document carries the session title and, per message, its role, content,
// timestamp, rating and pinned flag. JSON documents can be imported back
// into any session; Markdown transcripts are write-only.
//
// # Key Types
//
//   - Document: the portable session snapshot
//   - Exporter: renders a Document in one file format
//   - Options: output directory and transcript detail
//
// # Usage
//
// Encode and decode:
//
//	data, err := export.Encode(doc)
//	doc, err := export.Decode(data) // *model.FormatError on bad input
//
// Write a file:
//
//	path, err := export.WriteFile(doc, export.NewMarkdownExporter(nil), opts)
package export
