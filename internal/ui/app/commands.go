// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pocketllm-tui/internal/admin"
	"github.com/jeranaias/pocketllm-tui/internal/export"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func (m Model) listSessions() tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		_, err := dir.List(m.ctx)
		return listedMsg{Err: err}
	}
}

func (m Model) createSession(title string) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		s, err := dir.Create(m.ctx, title)
		return createdMsg{Session: s, Err: err}
	}
}

func (m Model) openSession(id string) tea.Cmd {
	dir, ctl := m.deps.Directory, m.deps.Thread
	dir.SetActive(id)
	return func() tea.Msg {
		return loadedMsg{SessionID: id, Err: ctl.Load(m.ctx, id)}
	}
}

func (m Model) renameSession(id, title string) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		return opMsg{Op: "rename session", Source: sourceDirectory, Err: dir.Rename(m.ctx, id, title)}
	}
}

// deleteSession runs after the user confirmed in the dialog.
func (m Model) deleteSession(id string) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		return opMsg{Op: "delete session", Source: sourceDirectory, Err: dir.Delete(m.ctx, id, session.AlwaysConfirm)}
	}
}

// =============================================================================
// THREAD COMMANDS
// =============================================================================

func (m Model) send(text string) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "send", Source: sourceThread, Err: ctl.Send(m.ctx, text)}
	}
}

func (m Model) rate(id string, r model.Rating) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "rate message", Source: sourceThread, Err: ctl.Rate(m.ctx, id, r)}
	}
}

func (m Model) togglePin(id string) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "pin message", Source: sourceThread, Err: ctl.TogglePin(m.ctx, id)}
	}
}

func (m Model) deleteMessage(id string) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "delete message", Source: sourceThread, Err: ctl.DeleteMessage(m.ctx, id)}
	}
}

func (m Model) reload() tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "reload messages", Source: sourceThread, Err: ctl.Reload(m.ctx)}
	}
}

func (m Model) search(query string) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "search", Source: sourceThread, Err: ctl.Search(m.ctx, query)}
	}
}

// clearSession runs after the user confirmed in the dialog.
func (m Model) clearSession() tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		return opMsg{Op: "clear session", Source: sourceThread, Err: ctl.ClearSession(m.ctx, session.AlwaysConfirm)}
	}
}

func (m Model) exportSession(format string) tea.Cmd {
	ctl, dir := m.deps.Thread, m.deps.ExportDir
	return func() tea.Msg {
		doc, err := ctl.Export()
		if err != nil {
			return exportedMsg{Err: err}
		}
		opts := export.DefaultOptions()
		if dir != "" {
			opts.OutputDir = dir
		}
		exporter, err := export.ExporterFor(format, opts)
		if err != nil {
			return exportedMsg{Err: err}
		}
		path, err := export.WriteFile(doc, exporter, opts)
		return exportedMsg{Path: path, Err: err}
	}
}

func (m Model) importFile(path string) tea.Cmd {
	ctl := m.deps.Thread
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return importedMsg{Err: err}
		}
		doc, err := export.Decode(data)
		if err != nil {
			return importedMsg{Err: err}
		}
		res, err := ctl.Import(m.ctx, doc, thread.ImportOptions{RestoreFlags: true})
		return importedMsg{Result: res, Err: err}
	}
}

// =============================================================================
// ADMIN COMMANDS
// =============================================================================

// startAdmin launches the stats poller. It stops when ctx is done.
func (m Model) startAdmin(ctx context.Context) tea.Cmd {
	p := admin.NewPoller(m.deps.Admin, m.deps.AdminInterval, m.stats.put)
	go func() {
		if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Warn("stats poller stopped", "error", err)
		}
	}()
	return m.waitStats(ctx)
}

func (m Model) clearCache() tea.Cmd {
	svc := m.deps.Admin
	return func() tea.Msg {
		return opMsg{Op: "clear cache", Source: sourceAdmin, Err: svc.ClearCache(m.ctx, session.AlwaysConfirm)}
	}
}
