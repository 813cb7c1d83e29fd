// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("POCKETLLM_HOME", dir)
	for _, k := range []string{"POCKETLLM_BASE_URL", "POCKETLLM_TIMEOUT", "POCKETLLM_LOG_LEVEL", "POCKETLLM_DB_PATH"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, 20, cfg.Chat.SearchLimit)
	assert.Equal(t, 5, cfg.UI.AdminPollSeconds)
	assert.Equal(t, 3, cfg.UI.ToastSeconds)
	assert.Equal(t, 60*time.Second, cfg.Timeout())
}

func TestLoadWithoutFilesUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestSaveAndLoadTOML(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Server.BaseURL = "https://chat.example.com"
	cfg.Chat.SearchLimit = 50
	require.NoError(t, Save(cfg))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", loaded.Server.BaseURL)
	assert.Equal(t, 50, loaded.Chat.SearchLimit)
}

func TestLoadFromPathPartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\nsearch_limit = 7\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Chat.SearchLimit)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, 4, cfg.Chat.BulkConcurrency)
}

func TestLoadFromPathJSON(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ui":{"theme":"light"}}`), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nbase_url = \"ftp://x\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "server.base_url", verrs[0].Field)
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "not a url"
	cfg.Chat.SearchLimit = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	verrs, ok := err.(ValidateErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 3)
	assert.Contains(t, err.Error(), "chat.search_limit")
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POCKETLLM_BASE_URL", "http://10.0.0.2:9000/")
	t.Setenv("POCKETLLM_TIMEOUT", "90s")
	t.Setenv("POCKETLLM_LOG_LEVEL", "debug")
	t.Setenv("POCKETLLM_DB_PATH", "/tmp/pl.db")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "http://10.0.0.2:9000", cfg.Server.BaseURL)
	assert.Equal(t, 90, cfg.Server.TimeoutSeconds)
	assert.Equal(t, "debug", cfg.Logging.Level)

	path, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pl.db", path)

	t.Setenv("POCKETLLM_TIMEOUT", "15")
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 15, cfg.Server.TimeoutSeconds)
}

func TestDotEnvLoadedFromConfigDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POCKETLLM_LOG_LEVEL=warn\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("POCKETLLM_LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDefaultPathsUnderConfigDir(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	db, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "client.db"), db)

	logFile, err := cfg.LogFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "client.log"), logFile)
}
