// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// Backend is the subset of the REST client used for authentication.
type Backend interface {
	Login(ctx context.Context, email, password string) (model.Identity, error)
	Register(ctx context.Context, email, password string) (model.Identity, error)
}

// CredentialStore persists the identity between runs.
type CredentialStore interface {
	SaveCredentials(id model.Identity) error
	Identity() (model.Identity, error)
	Clear() error
}

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Service performs login, registration and logout.
type Service struct {
	backend Backend
	store   CredentialStore
}

// NewService creates an auth service.
func NewService(backend Backend, store CredentialStore) *Service {
	return &Service{backend: backend, store: store}
}

// Login authenticates and stores the returned credentials.
func (s *Service) Login(ctx context.Context, email, password string) (model.Identity, error) {
	return s.authenticate(ctx, "login", s.backend.Login, email, password)
}

// Register creates an account and stores the returned credentials.
func (s *Service) Register(ctx context.Context, email, password string) (model.Identity, error) {
	return s.authenticate(ctx, "register", s.backend.Register, email, password)
}

type authFunc func(ctx context.Context, email, password string) (model.Identity, error)

func (s *Service) authenticate(ctx context.Context, op string, call authFunc, email, password string) (model.Identity, error) {
	email = strings.TrimSpace(email)
	if err := model.ValidateStruct(credentials{Email: email, Password: strings.TrimSpace(password)}); err != nil {
		return model.Identity{}, err
	}

	id, err := call(ctx, email, password)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%s failed: %w", op, err)
	}
	if id.Token == "" {
		return model.Identity{}, fmt.Errorf("%s failed: backend returned no token", op)
	}
	if id.Email == "" {
		id.Email = email
	}

	if err := s.store.SaveCredentials(id); err != nil {
		return model.Identity{}, err
	}
	logging.FromContext(ctx).Info("authenticated", "op", op, "user_id", id.UserID)
	return id, nil
}

// Logout clears stored credentials.
func (s *Service) Logout() error {
	return s.store.Clear()
}

// Current returns the stored identity. It is empty when logged out.
func (s *Service) Current() (model.Identity, error) {
	return s.store.Identity()
}
