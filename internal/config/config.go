// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pocketllm configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server  ServerConfig  `toml:"server" json:"server"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	BaseURL        string `toml:"base_url" json:"base_url"`
	APIPrefix      string `toml:"api_prefix" json:"api_prefix"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
}

// StorageConfig contains local credential store settings.
type StorageConfig struct {
	// DBPath is the SQLite file. Empty means ~/.pocketllm/client.db.
	DBPath          string `toml:"db_path" json:"db_path"`
	WatchDebounceMs int    `toml:"watch_debounce_ms" json:"watch_debounce_ms"`
}

// ChatConfig contains message thread settings.
type ChatConfig struct {
	SearchLimit       int     `toml:"search_limit" json:"search_limit"`
	BulkConcurrency   int     `toml:"bulk_concurrency" json:"bulk_concurrency"`
	BulkRatePerSecond float64 `toml:"bulk_rate_per_second" json:"bulk_rate_per_second"`
	ExportDir         string  `toml:"export_dir" json:"export_dir"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Theme            string `toml:"theme" json:"theme"`
	ToastSeconds     int    `toml:"toast_seconds" json:"toast_seconds"`
	SidebarWidth     int    `toml:"sidebar_width" json:"sidebar_width"`
	AdminPollSeconds int    `toml:"admin_poll_seconds" json:"admin_poll_seconds"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	// File is the log destination. Empty means ~/.pocketllm/client.log.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			APIPrefix:      "/api/v1",
			TimeoutSeconds: 60,
		},

		Storage: StorageConfig{
			WatchDebounceMs: 200,
		},

		Chat: ChatConfig{
			SearchLimit:       20,
			BulkConcurrency:   4,
			BulkRatePerSecond: 10,
		},

		UI: UIConfig{
			Theme:            "dark",
			ToastSeconds:     3,
			SidebarWidth:     28,
			AdminPollSeconds: 5,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Timeout returns the HTTP request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// DBPath returns the credential database path, resolving the default.
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return expandHome(c.Storage.DBPath)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "client.db"), nil
}

// LogFile returns the log file path, resolving the default.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "client.log"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pocketllm configuration directory path.
// POCKETLLM_HOME overrides the default ~/.pocketllm.
func ConfigDir() (string, error) {
	if dir := os.Getenv("POCKETLLM_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pocketllm"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads .env files into the process environment.
// Variables already set are not overridden. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func defaultDotEnvPaths() []string {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	return paths
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if err := LoadDotEnv(defaultDotEnvPaths()...); err != nil {
		return nil, err
	}

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Fields missing from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	err := util.WriteFileAtomic(path, 0600, func(w io.Writer) error {
		fmt.Fprint(w, "# pocketllm configuration file\n# Generated by pocketllm - edit with care\n\n")
		return cfg.Encode(w)
	})
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Server.BaseURL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		errs = append(errs, ValidationError{
			Field:   "server.api_prefix",
			Message: "must start with '/'",
		})
	}
	if c.Server.TimeoutSeconds < 1 || c.Server.TimeoutSeconds > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Server.TimeoutSeconds),
		})
	}

	// Storage
	if c.Storage.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.watch_debounce_ms",
			Message: "must not be negative",
		})
	}

	// Chat
	if c.Chat.SearchLimit < 1 || c.Chat.SearchLimit > 500 {
		errs = append(errs, ValidationError{
			Field:   "chat.search_limit",
			Message: fmt.Sprintf("must be between 1 and 500, got %d", c.Chat.SearchLimit),
		})
	}
	if c.Chat.BulkConcurrency < 1 || c.Chat.BulkConcurrency > 32 {
		errs = append(errs, ValidationError{
			Field:   "chat.bulk_concurrency",
			Message: fmt.Sprintf("must be between 1 and 32, got %d", c.Chat.BulkConcurrency),
		})
	}
	if c.Chat.BulkRatePerSecond <= 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.bulk_rate_per_second",
			Message: "must be positive",
		})
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.ToastSeconds < 1 {
		errs = append(errs, ValidationError{Field: "ui.toast_seconds", Message: "must be at least 1"})
	}
	if c.UI.SidebarWidth < 12 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Message: "must be at least 12"})
	}
	if c.UI.AdminPollSeconds < 1 {
		errs = append(errs, ValidationError{Field: "ui.admin_poll_seconds", Message: "must be at least 1"})
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Logging.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//   - POCKETLLM_BASE_URL: overrides server.base_url
//   - POCKETLLM_TIMEOUT: overrides server.timeout_seconds
//   - POCKETLLM_LOG_LEVEL: overrides logging.level
//   - POCKETLLM_DB_PATH: overrides storage.db_path
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("POCKETLLM_BASE_URL"); baseURL != "" {
		c.Server.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if timeout := os.Getenv("POCKETLLM_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Server.TimeoutSeconds = secs
		} else if d, err := time.ParseDuration(timeout); err == nil {
			c.Server.TimeoutSeconds = int(d.Seconds())
		}
	}

	if level := os.Getenv("POCKETLLM_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if dbPath := os.Getenv("POCKETLLM_DB_PATH"); dbPath != "" {
		c.Storage.DBPath = dbPath
	}
}
