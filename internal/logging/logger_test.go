// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Options{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)
	defer closer.Close()

	prev := Logger()
	SetLogger(l)
	defer SetLogger(prev)

	ctx := WithRequestID(context.Background(), "req-1")
	FromContext(ctx).Debug("hello", "path", "/sessions")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "/sessions", rec["path"])
}

func TestLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	prev := Logger()
	defer SetLogger(prev)

	closer, err := Setup(Options{File: path})
	require.NoError(t, err)
	WithFields("component", "test").Info("written")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "component=test"))
}

func TestUnknownFormat(t *testing.T) {
	_, _, err := New(Options{Format: "xml", Writer: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestFromContextWithoutID(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
	assert.NotNil(t, FromContext(context.Background()))
}
