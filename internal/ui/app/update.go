// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
	"github.com/jeranaias/pocketllm-tui/internal/ui/components"
	"github.com/jeranaias/pocketllm-tui/internal/util"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		cmd := m.applySnapshot(msg.Snapshot)
		return m, tea.Batch(cmd, m.waitSnapshot())

	case sessionsMsg:
		m.sidebar.SetSessions(msg.Sessions)
		m.sidebar.SetActive(m.deps.Directory.Active())
		return m, m.waitSessions()

	case statsMsg:
		u := msg.Update
		m.statsView.Update(u.Stats, u.HasData, u.Message, u.At)
		if m.adminCtx == nil || m.adminCtx.Err() != nil {
			return m, nil
		}
		return m, m.waitStats(m.adminCtx)

	case identityMsg:
		return m.handleIdentity(msg.Identity)

	case listedMsg:
		if errors.Is(msg.Err, model.ErrStale) {
			return m, nil
		}
		m.listing = false
		m.sidebar.SetLoading(false)
		if msg.Err != nil {
			m.sidebar.SetError(msg.Err.Error())
			return m, nil
		}
		m.sidebar.SetError("")
		if m.snap.SessionID == "" {
			if sessions := m.deps.Directory.Sessions(); len(sessions) > 0 {
				return m, m.openSession(sessions[0].ID)
			}
		}
		return m, nil

	case createdMsg:
		if errors.Is(msg.Err, model.ErrStale) {
			return m, nil
		}
		if msg.Err != nil {
			m.deps.Bus.Error("Failed to create session: " + api.Describe(msg.Err))
			return m, nil
		}
		m.setFocus(focusInput)
		return m, m.openSession(msg.Session.ID)

	case loadedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, model.ErrStale) {
			m.log.Debug("session load failed", "session_id", msg.SessionID, "error", msg.Err)
		}
		return m, nil

	case exportedMsg:
		if msg.Err != nil {
			m.deps.Bus.Error("Export failed: " + msg.Err.Error())
		} else {
			m.deps.Bus.Success("Exported to " + msg.Path)
		}
		return m, nil

	case importedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, model.ErrStale) {
			m.deps.Bus.Error("Import failed: " + msg.Err.Error())
		}
		return m, nil

	case opMsg:
		m.reportOp(msg)
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

// updateInputs forwards anything else (cursor blink) to the text inputs.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.mode == modePrompt {
		m.prompt, cmd = m.prompt.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// applySnapshot shows snap unless a newer one is already on screen.
func (m *Model) applySnapshot(snap thread.Snapshot) tea.Cmd {
	if snap.Version <= m.snap.Version {
		return nil
	}
	m.snap = snap

	m.header.Title = snap.Title
	m.header.Filter = snap.Filter
	m.header.Query = snap.Query
	m.list.SetMessages(snap.View, snap.CachedID, m.emptyText())
	m.sidebar.SetActive(snap.SessionID)
	m.status.State = ""
	if snap.State == thread.StateSending {
		m.status.State = snap.State.String()
	}

	switch {
	case snap.State == thread.StateSending && !m.spinner.IsActive():
		return m.spinner.Start()
	case snap.State != thread.StateSending:
		m.spinner.Stop()
	}
	return nil
}

func (m Model) emptyText() string {
	switch {
	case m.snap.SessionID == "":
		return "Select a session or press ctrl+n to start one."
	case m.snap.Loading:
		return "Loading messages..."
	default:
		return m.snap.Empty()
	}
}

// reportOp publishes failures the failing component did not publish itself.
// Backend errors from the thread controller and the admin service are
// already on the bus; local rejections and directory errors are not.
func (m Model) reportOp(op opMsg) {
	err := op.Err
	switch {
	case err == nil:
		return
	case errors.Is(err, model.ErrStale), errors.Is(err, model.ErrCancelled):
		return
	case errors.Is(err, model.ErrBusy):
		m.deps.Bus.Warning("Please wait for the current reply")
	case errors.Is(err, model.ErrEmptyPrompt):
		return
	case errors.Is(err, model.ErrNoSession):
		m.deps.Bus.Warning("Open or create a session first")
	case model.IsValidation(err):
		m.deps.Bus.Warning(fmt.Sprintf("Cannot %s: %s", op.Op, err.Error()))
	case op.Source == sourceDirectory:
		m.deps.Bus.Error(fmt.Sprintf("Failed to %s: %s", op.Op, api.Describe(err)))
	}
}

func (m Model) handleIdentity(id model.Identity) (tea.Model, tea.Cmd) {
	next := m.waitIdentity()
	if !id.LoggedIn() {
		m.deps.Bus.Warning("Logged out in another terminal")
		return m, tea.Sequence(next, tea.Quit)
	}
	if id.UserID != m.deps.Identity.UserID {
		// Another account signed in elsewhere: its sessions replace ours.
		m.deps.Identity = id
		m.status.Email = id.Email
		m.deps.Thread.Unload()
		m.deps.Directory.SetUserID(id.UserID)
		m.sidebar.SetLoading(true)
		m.deps.Bus.Info("Signed in as " + id.Email)
		return m, tea.Batch(next, m.listSessions())
	}
	if id.Email != m.status.Email {
		m.status.Email = id.Email
		m.deps.Bus.Info("Signed in as " + id.Email)
	}
	return m, next
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modePrompt:
		return m.handlePromptKey(msg)
	case modeAdmin:
		return m.handleAdminKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case key.Matches(msg, m.keys.NewSession):
		return m.openPrompt(promptNewSession, "", ""), textinput.Blink
	case key.Matches(msg, m.keys.Admin):
		return m.enterAdmin()
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusMessages:
		return m.handleMessagesKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		text := m.input.Value()
		if util.IsBlank(text) {
			return m, nil
		}
		if m.snap.State == thread.StateSending {
			m.deps.Bus.Warning("Please wait for the current reply")
			return m, nil
		}
		m.input.Reset()
		return m, m.send(text)
	}
	if key.Matches(msg, m.keys.Back) {
		m.setFocus(focusMessages)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		m.sidebar.MoveCursor(-1)
	case key.Matches(msg, k.Down):
		m.sidebar.MoveCursor(1)
	case key.Matches(msg, k.Submit):
		if s, ok := m.sidebar.Selected(); ok {
			m.setFocus(focusInput)
			return m, m.openSession(s.ID)
		}
	case key.Matches(msg, k.Rename):
		if s, ok := m.sidebar.Selected(); ok {
			return m.openPrompt(promptRename, s.ID, s.Title), textinput.Blink
		}
	case key.Matches(msg, k.DeleteSession):
		if s, ok := m.sidebar.Selected(); ok {
			id := s.ID
			return m.openConfirm(fmt.Sprintf("Delete session %q?", s.DisplayTitle()), func() tea.Cmd {
				return m.deleteSession(id)
			}), nil
		}
	case key.Matches(msg, k.Refresh):
		m.sidebar.SetLoading(true)
		return m, m.listSessions()
	case key.Matches(msg, k.Back):
		m.setFocus(focusInput)
	}
	return m, nil
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	selected, hasSelection := m.list.Selected()

	switch {
	case key.Matches(msg, k.Up):
		m.list.MoveCursor(-1)
	case key.Matches(msg, k.Down):
		m.list.MoveCursor(1)
	case key.Matches(msg, k.RateUp) && hasSelection:
		return m, m.rate(selected.ID, model.RatingUp)
	case key.Matches(msg, k.RateDown) && hasSelection:
		return m, m.rate(selected.ID, model.RatingDown)
	case key.Matches(msg, k.Pin) && hasSelection:
		return m, m.togglePin(selected.ID)
	case key.Matches(msg, k.DeleteMessage) && hasSelection:
		return m, m.deleteMessage(selected.ID)
	case key.Matches(msg, k.Refresh):
		return m, m.reload()
	case key.Matches(msg, k.Copy) && hasSelection:
		if err := m.deps.Clipboard(selected.Content); err != nil {
			m.deps.Bus.Error("Failed to copy: " + err.Error())
			return m, nil
		}
		m.deps.Bus.Success(fmt.Sprintf("Copied %d characters to clipboard", utf8.RuneCountInString(selected.Content)))
	case key.Matches(msg, k.Search):
		return m.openPrompt(promptSearch, "", m.snap.Query), textinput.Blink
	case key.Matches(msg, k.CycleFilter):
		if _, err := m.deps.Thread.CycleFilter(); err != nil {
			m.reportOp(opMsg{Op: "change filter", Err: err})
		}
	case key.Matches(msg, k.ExportJSON):
		return m, m.exportSession("json")
	case key.Matches(msg, k.ExportMD):
		return m, m.exportSession("md")
	case key.Matches(msg, k.Import):
		return m.openPrompt(promptImport, "", ""), textinput.Blink
	case key.Matches(msg, k.Clear):
		n := len(m.snap.Messages)
		if n == 0 {
			return m, nil
		}
		return m.openConfirm(fmt.Sprintf("Delete all %d messages in this session?", n), m.clearSession), nil
	case key.Matches(msg, k.Back):
		if m.snap.Filter != model.FilterAll {
			if err := m.deps.Thread.SetFilter(model.FilterAll); err != nil {
				m.reportOp(opMsg{Op: "change filter", Err: err})
			}
			return m, nil
		}
		m.setFocus(focusInput)
	}
	return m, nil
}

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Admin):
		m.leaveAdmin()
	case key.Matches(msg, m.keys.ClearCache):
		return m.openConfirm("Are you sure you want to clear the entire cache?", m.clearCache), nil
	}
	return m, nil
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) openPrompt(kind promptKind, target, value string) Model {
	m.mode = modePrompt
	m.promptKind = kind
	m.promptTarget = target
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
	m.input.Blur()
	switch kind {
	case promptNewSession:
		m.prompt.Placeholder = "Session title (optional)"
	case promptRename:
		m.prompt.Placeholder = "New title"
	case promptSearch:
		m.prompt.Placeholder = "Search messages"
	case promptImport:
		m.prompt.Placeholder = "Path to an exported JSON file"
	}
	return m
}

func (m Model) promptTitle() string {
	switch m.promptKind {
	case promptNewSession:
		return "New session"
	case promptRename:
		return "Rename session"
	case promptSearch:
		return "Search"
	default:
		return "Import messages"
	}
}

func (m Model) closePrompt() Model {
	m.mode = modeChat
	m.prompt.Blur()
	m.prompt.Reset()
	m.setFocus(m.focus)
	return m
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return m.closePrompt(), nil
	case msg.Type == tea.KeyEnter:
		value := m.prompt.Value()
		kind, target := m.promptKind, m.promptTarget
		m = m.closePrompt()
		switch kind {
		case promptNewSession:
			return m, m.createSession(value)
		case promptRename:
			return m, m.renameSession(target, value)
		case promptSearch:
			return m, m.search(value)
		case promptImport:
			if util.IsBlank(value) {
				return m, nil
			}
			return m, m.importFile(util.NormalizeText(value))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) openConfirm(text string, action func() tea.Cmd) Model {
	m.confirmText = text
	m.confirmAction = action
	m.confirmReturn = m.mode
	if m.confirmReturn != modeAdmin {
		m.confirmReturn = modeChat
	}
	m.mode = modeConfirm
	return m
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Yes):
		cmd = m.confirmAction()
	case key.Matches(msg, m.keys.No):
	default:
		return m, nil
	}
	m.confirmText = ""
	m.confirmAction = nil
	m.mode = m.confirmReturn
	return m, cmd
}

// =============================================================================
// ADMIN VIEW
// =============================================================================

func (m Model) enterAdmin() (tea.Model, tea.Cmd) {
	if m.deps.Admin == nil {
		m.deps.Bus.Warning("Admin stats are not available")
		return m, nil
	}
	m.mode = modeAdmin
	m.input.Blur()
	m.adminCtx, m.adminCancel = context.WithCancel(m.ctx)
	return m, m.startAdmin(m.adminCtx)
}

func (m *Model) leaveAdmin() {
	if m.adminCancel != nil {
		m.adminCancel()
		m.adminCancel = nil
		m.adminCtx = nil
	}
	m.mode = modeChat
	m.setFocus(m.focus)
}

// =============================================================================
// LAYOUT AND FOCUS
// =============================================================================

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.sidebar.SetFocused(f == focusSidebar)
	if f == focusInput && m.mode == modeChat {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.status.Shortcuts = m.keys.hintsFor(f)
}

func (m *Model) layout() {
	sidebarWidth := m.deps.SidebarWidth
	if m.width < 60 {
		sidebarWidth = 0
	}
	bodyHeight := m.height - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.sidebar.SetSize(sidebarWidth, bodyHeight+2)

	paneWidth := m.width - sidebarWidth
	m.header.SetWidth(paneWidth)
	m.list.SetSize(paneWidth, bodyHeight-2)
	m.input.Width = paneWidth - 4
	m.status.SetWidth(m.width)
	m.status.Shortcuts = m.keys.hintsFor(m.focus)
	m.statsView.SetSize(m.width, m.height)
}
