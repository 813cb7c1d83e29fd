// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth logs users in and out against the backend and keeps the
// resulting credentials in the local store.
package auth
