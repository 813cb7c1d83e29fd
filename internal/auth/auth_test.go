// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/storage"
)

type fakeBackend struct {
	calls int
	id    model.Identity
	err   error
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (model.Identity, error) {
	f.calls++
	return f.id, f.err
}

func (f *fakeBackend) Register(ctx context.Context, email, password string) (model.Identity, error) {
	f.calls++
	return f.id, f.err
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoginStoresCredentials(t *testing.T) {
	backend := &fakeBackend{id: model.Identity{Token: "tok", UserID: "u1"}}
	store := newStore(t)
	svc := NewService(backend, store)

	id, err := svc.Login(context.Background(), "  a@example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", id.Email)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, model.Identity{Token: "tok", UserID: "u1", Email: "a@example.com"}, current)
	assert.True(t, store.IsLoggedIn())
}

func TestEmptyFieldsRejectedWithoutNetwork(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, newStore(t))

	for _, tc := range [][2]string{{"", "pw"}, {"a@example.com", "   "}, {"", ""}} {
		_, err := svc.Register(context.Background(), tc[0], tc[1])
		assert.True(t, model.IsValidation(err), "%q/%q: %v", tc[0], tc[1], err)
	}
	assert.Equal(t, 0, backend.calls)
}

func TestBackendFailureLeavesStoreEmpty(t *testing.T) {
	backend := &fakeBackend{err: errors.New("Invalid credentials")}
	store := newStore(t)
	svc := NewService(backend, store)

	_, err := svc.Login(context.Background(), "a@example.com", "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, store.IsLoggedIn())
}

func TestMissingTokenIsAnError(t *testing.T) {
	svc := NewService(&fakeBackend{id: model.Identity{UserID: "u1"}}, newStore(t))
	_, err := svc.Login(context.Background(), "a@example.com", "pw")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	store := newStore(t)
	svc := NewService(&fakeBackend{id: model.Identity{Token: "tok", UserID: "u1"}}, store)
	_, err := svc.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	current, err := svc.Current()
	require.NoError(t, err)
	assert.False(t, current.LoggedIn())
}
