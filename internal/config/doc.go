// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pocketllm.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend base URL, API prefix and request timeout
//   - StorageConfig: Credential database location
//   - ChatConfig: Search limit and bulk operation pacing
//   - UIConfig: Theme, toast duration and admin poll interval
//   - LoggingConfig: Log level, format and file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (POCKETLLM_*), including those set by .env files
//   - ~/.pocketllm/config.toml
//   - ~/.pocketllm/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := api.NewClient(cfg.Server.BaseURL, cfg.Timeout())
package config
