// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pocketllm-tui/internal/admin"
	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
	"github.com/jeranaias/pocketllm-tui/internal/ui/components"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps are the collaborators of the Model. Directory, Thread and Bus are
// required.
type Deps struct {
	Directory *session.Directory
	Thread    *thread.Controller
	Admin     *admin.Service
	Bus       *notify.Bus
	Theme     *styles.Theme
	Identity  model.Identity
	BaseURL   string

	ExportDir     string
	AdminInterval time.Duration
	SidebarWidth  int
	ToastDuration time.Duration

	// Clipboard copies text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error

	// Watch, when set, reports credential changes made outside the TUI until
	// ctx is done.
	Watch func(ctx context.Context, fn func(model.Identity)) error

	Logger *slog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

type focus int

const (
	focusInput focus = iota
	focusMessages
	focusSidebar
)

type mode int

const (
	modeChat mode = iota
	modePrompt
	modeConfirm
	modeAdmin
)

type promptKind int

const (
	promptNewSession promptKind = iota
	promptRename
	promptSearch
	promptImport
)

// Model is the root tea.Model.
type Model struct {
	deps   Deps
	keys   KeyMap
	theme  *styles.Theme
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger

	snapshots *mailbox[thread.Snapshot]
	sessions  *mailbox[[]model.Session]
	stats     *mailbox[admin.Update]
	identity  *mailbox[model.Identity]
	unsubs    []func()

	sidebar   *components.Sidebar
	header    *components.Header
	list      *components.MessageList
	status    *components.StatusBar
	statsView *components.StatsView
	toasts    *components.ToastManager
	spinner   components.Spinner
	input     textinput.Model
	prompt    textinput.Model

	snap          thread.Snapshot
	focus         focus
	mode          mode
	promptKind    promptKind
	promptTarget  string
	confirmText   string
	confirmAction func() tea.Cmd
	confirmReturn mode
	adminCtx      context.Context
	adminCancel   context.CancelFunc
	listing       bool

	width  int
	height int
}

// New builds the Model and subscribes it to its collaborators. Call Close
// when the program exits.
func New(deps Deps) Model {
	if deps.Theme == nil {
		deps.Theme = styles.NewTheme(styles.ThemeDark)
	}
	if deps.Bus == nil {
		deps.Bus = notify.NewBus()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Logger()
	}
	if deps.Clipboard == nil {
		deps.Clipboard = clipboard.WriteAll
	}
	if deps.SidebarWidth <= 0 {
		deps.SidebarWidth = 28
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := deps.Theme

	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.Placeholder = "Type a message and press enter"
	input.CharLimit = 8000
	input.Focus()

	prompt := textinput.New()
	prompt.Prompt = ""
	prompt.CharLimit = 500

	m := Model{
		deps:      deps,
		keys:      DefaultKeyMap(),
		theme:     theme,
		ctx:       ctx,
		cancel:    cancel,
		log:       deps.Logger.With("component", "tui"),
		snapshots: newMailbox(newerSnapshot),
		sessions:  newMailbox[[]model.Session](nil),
		stats:     newMailbox[admin.Update](nil),
		identity:  newMailbox[model.Identity](nil),
		sidebar:   components.NewSidebar(theme),
		header:    components.NewHeader(theme),
		list:      components.NewMessageList(theme),
		status:    components.NewStatusBar(theme),
		statsView: components.NewStatsView(theme),
		toasts:    components.NewToastManager(),
		spinner:   components.NewSpinner(theme, "Sending..."),
		input:     input,
		prompt:    prompt,
		snap:      deps.Thread.Snapshot(),
		focus:     focusInput,
		listing:   true,
	}
	m.status.Email = deps.Identity.Email
	m.status.BaseURL = deps.BaseURL
	m.sidebar.SetLoading(true)
	m.toasts.SetBaseDuration(deps.ToastDuration)

	ctl, dir := deps.Thread, deps.Directory
	m.unsubs = append(m.unsubs,
		m.toasts.Attach(deps.Bus),
		ctl.OnChange(m.snapshots.put),
		dir.OnChange(m.sessions.put),
		dir.OnTitleChange(ctl.SetTitle),
	)
	dir.SetNavigator(session.NavigatorFunc(func(string) { ctl.Unload() }))

	if deps.Watch != nil {
		go func() {
			if err := deps.Watch(ctx, m.identity.put); err != nil && ctx.Err() == nil {
				m.log.Warn("credential watch stopped", "error", err)
			}
		}()
	}
	return m
}

// Close cancels outstanding work and detaches from the collaborators.
func (m Model) Close() {
	m.cancel()
	for _, unsub := range m.unsubs {
		unsub()
	}
}

// Init starts the background listeners and fetches the session list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		components.ToastTickCmd(),
		m.waitSnapshot(),
		m.waitSessions(),
		m.waitIdentity(),
		m.listSessions(),
	)
}

// =============================================================================
// MAILBOX COMMANDS
// =============================================================================

func (m Model) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := m.snapshots.take(m.ctx)
		if !ok {
			return nil
		}
		return snapshotMsg{Snapshot: snap}
	}
}

func (m Model) waitSessions() tea.Cmd {
	return func() tea.Msg {
		list, ok := m.sessions.take(m.ctx)
		if !ok {
			return nil
		}
		return sessionsMsg{Sessions: list}
	}
}

func (m Model) waitStats(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		u, ok := m.stats.take(ctx)
		if !ok {
			return nil
		}
		return statsMsg{Update: u}
	}
}

func (m Model) waitIdentity() tea.Cmd {
	if m.deps.Watch == nil {
		return nil
	}
	return func() tea.Msg {
		id, ok := m.identity.take(m.ctx)
		if !ok {
			return nil
		}
		return identityMsg{Identity: id}
	}
}
