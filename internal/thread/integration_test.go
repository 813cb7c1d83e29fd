// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/mockserver"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

func devBackend(t *testing.T, opts mockserver.Options) *api.Client {
	t.Helper()
	ts := httptest.NewServer(mockserver.New(opts).Handler())
	t.Cleanup(ts.Close)
	return api.NewClient(ts.URL).WithTimeout(5 * time.Second)
}

func roleContent(msgs []model.Message) [][2]string {
	out := make([][2]string, len(msgs))
	for i, m := range msgs {
		out[i] = [2]string{string(m.Role), m.Content}
	}
	return out
}

func TestDevBackendSendAndReload(t *testing.T) {
	client := devBackend(t, mockserver.Options{Latency: 30 * time.Millisecond})
	ctx := context.Background()
	s, err := client.CreateSession(ctx, "u1", "")
	require.NoError(t, err)

	ctl := thread.New(client, thread.Options{})
	defer ctl.Close()
	require.NoError(t, ctl.Load(ctx, s.ID))

	require.NoError(t, ctl.Send(ctx, "Hello"))
	snap := ctl.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.True(t, snap.Messages[0].Optimistic)
	assert.Equal(t, "Echo: Hello (This is a stub response)", snap.Messages[1].Content)
	assert.Empty(t, snap.CachedID)

	require.NoError(t, ctl.Send(ctx, "Hello"))
	assert.NotEmpty(t, ctl.Snapshot().CachedID)

	require.NoError(t, ctl.Reload(ctx))
	snap = ctl.Snapshot()
	require.Len(t, snap.Messages, 4)
	for _, m := range snap.Messages {
		assert.False(t, model.IsTemporary(m.ID))
	}
	assert.Equal(t, snap.Messages[3].ID, snap.CachedID)
}

func TestDevBackendImportIntoEmptySession(t *testing.T) {
	client := devBackend(t, mockserver.Options{})
	ctx := context.Background()
	s, err := client.CreateSession(ctx, "u1", "")
	require.NoError(t, err)

	ctl := thread.New(client, thread.Options{})
	defer ctl.Close()
	require.NoError(t, ctl.Load(ctx, s.ID))

	doc, err := export.Decode([]byte(`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`))
	require.NoError(t, err)
	res, err := ctl.Import(ctx, doc, thread.ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	assert.Equal(t, [][2]string{{"user", "hi"}, {"assistant", "hello"}}, roleContent(ctl.Snapshot().Messages))
}

func TestDevBackendExportImportRoundTrip(t *testing.T) {
	client := devBackend(t, mockserver.Options{})
	ctx := context.Background()
	src, err := client.CreateSession(ctx, "u1", "Source")
	require.NoError(t, err)
	dst, err := client.CreateSession(ctx, "u1", "")
	require.NoError(t, err)
	for _, m := range []struct {
		role    model.Role
		content string
	}{{model.RoleUser, "one"}, {model.RoleAssistant, "two"}, {model.RoleUser, "three"}} {
		_, err := client.CreateMessage(ctx, src.ID, m.content, m.role)
		require.NoError(t, err)
	}

	ctl := thread.New(client, thread.Options{})
	defer ctl.Close()
	require.NoError(t, ctl.Load(ctx, src.ID))
	doc, err := ctl.Export()
	require.NoError(t, err)
	want := roleContent(ctl.Snapshot().Messages)

	require.NoError(t, ctl.Load(ctx, dst.ID))
	_, err = ctl.Import(ctx, doc, thread.ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, want, roleContent(ctl.Snapshot().Messages))
}

func TestDevBackendClearSession(t *testing.T) {
	client := devBackend(t, mockserver.Options{})
	ctx := context.Background()
	s, err := client.CreateSession(ctx, "u1", "")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := client.CreateMessage(ctx, s.ID, "msg", model.RoleUser)
		require.NoError(t, err)
	}

	ctl := thread.New(client, thread.Options{BulkConcurrency: 3, BulkRatePerSecond: 500})
	defer ctl.Close()
	require.NoError(t, ctl.Load(ctx, s.ID))
	require.NoError(t, ctl.ClearSession(ctx, session.AlwaysConfirm))
	assert.Empty(t, ctl.Snapshot().Messages)

	detail, err := client.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Messages)
}
