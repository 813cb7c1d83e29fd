// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen interface.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/storage"
	"github.com/jeranaias/pocketllm-tui/internal/ui/app"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

// RunTUI starts the bubbletea program for the signed-in user.
func RunTUI(ctx context.Context, env *Env) error {
	id, err := env.Identity()
	if err != nil {
		return err
	}

	cfg := env.Config
	dir := session.NewDirectory(env.Client, id.UserID, nil)
	ctl := env.Controller()
	defer ctl.Close()

	m := app.New(app.Deps{
		Directory:     dir,
		Thread:        ctl,
		Admin:         env.Admin(),
		Bus:           env.Bus,
		Theme:         styles.NewTheme(cfg.UI.Theme),
		Identity:      id,
		BaseURL:       env.Client.BaseURL(),
		ExportDir:     cfg.Chat.ExportDir,
		AdminInterval: time.Duration(cfg.UI.AdminPollSeconds) * time.Second,
		SidebarWidth:  cfg.UI.SidebarWidth,
		ToastDuration: time.Duration(cfg.UI.ToastSeconds) * time.Second,
		Watch: func(ctx context.Context, fn func(model.Identity)) error {
			err := env.Store.Watch(ctx, env.WatchDebounce(), fn)
			if errors.Is(err, storage.ErrNotWatchable) {
				return nil
			}
			return err
		},
		Logger: env.Log,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Close()
	} else {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
