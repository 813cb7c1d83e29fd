// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared runtime for commands that talk to the backend.

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/admin"
	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/auth"
	"github.com/jeranaias/pocketllm-tui/internal/config"
	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/session"
	"github.com/jeranaias/pocketllm-tui/internal/storage"
	"github.com/jeranaias/pocketllm-tui/internal/thread"
)

// Stdio bundles the standard streams so commands can be tested.
type Stdio struct {
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	IsTTY func() bool
}

// OSStdio returns the process streams.
func OSStdio() Stdio {
	return Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, IsTTY: IsTTY}
}

// Env is the wired runtime shared by the commands: configuration, the
// credential store, the REST client and the notification bus.
type Env struct {
	Args   Args
	Config *config.Config
	Store  *storage.Store
	Client *api.Client
	Bus    *notify.Bus
	Log    *slog.Logger
	Stdio

	closers []io.Closer
}

// NewEnv loads configuration, installs the logger and opens the credential
// store. Call Close when done.
func NewEnv(args Args, stdio Stdio) (*Env, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	logFile, err := cfg.LogFile()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if args.Verbose {
		level = "debug"
	}
	logCloser, err := logging.Setup(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   logFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	env := newEnv(args, cfg, store, stdio)
	env.closers = append(env.closers, store, logCloser)
	return env, nil
}

// newEnv wires the runtime around an already opened store.
func newEnv(args Args, cfg *config.Config, store *storage.Store, stdio Stdio) *Env {
	client := api.NewClient(cfg.Server.BaseURL).
		WithPrefix(cfg.Server.APIPrefix).
		WithTimeout(cfg.Timeout()).
		WithTokenSource(store)
	return &Env{
		Args:   args,
		Config: cfg,
		Store:  store,
		Client: client,
		Bus:    notify.NewBus(),
		Log:    logging.WithFields("component", "cli"),
		Stdio:  stdio,
	}
}

func loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if args.BaseURL != "" {
		cfg.Server.BaseURL = args.BaseURL
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid --base-url: %w", err)
		}
	}
	return cfg, nil
}

// Close releases the store and the log file.
func (e *Env) Close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.Log.Warn("close failed", "error", err)
		}
	}
}

// =============================================================================
// SERVICES
// =============================================================================

// Auth returns the login/logout service.
func (e *Env) Auth() *auth.Service {
	return auth.NewService(e.Client, e.Store)
}

// Identity returns the stored identity or ErrNotLoggedIn.
func (e *Env) Identity() (model.Identity, error) {
	id, err := e.Store.Identity()
	if err != nil {
		return model.Identity{}, err
	}
	if !id.LoggedIn() {
		return model.Identity{}, ErrNotLoggedIn
	}
	return id, nil
}

// Directory returns a session directory for the signed-in user.
func (e *Env) Directory(ctx context.Context) (*session.Directory, model.Identity, error) {
	id, err := e.Identity()
	if err != nil {
		return nil, id, err
	}
	dir := session.NewDirectory(e.Client, id.UserID, nil)
	if _, err := dir.List(ctx); err != nil {
		return nil, id, err
	}
	return dir, id, nil
}

// Controller returns a message controller configured from the chat section.
func (e *Env) Controller() *thread.Controller {
	c := e.Config.Chat
	return thread.New(e.Client, thread.Options{
		SearchLimit:       c.SearchLimit,
		BulkConcurrency:   c.BulkConcurrency,
		BulkRatePerSecond: c.BulkRatePerSecond,
		Bus:               e.Bus,
	})
}

// Admin returns the admin service.
func (e *Env) Admin() *admin.Service {
	return admin.NewService(e.Client, e.Bus)
}

// Prompter returns a confirmation prompter honoring --confirm and --json.
func (e *Env) Prompter() *Prompter {
	return NewPrompter(ConfirmationOptions{
		ConfirmFlag: e.Args.Confirm,
		JSONMode:    e.Args.JSON,
	}, e.In, e.Err, e.IsTTY)
}

// WatchDebounce is the credential watcher debounce.
func (e *Env) WatchDebounce() time.Duration {
	return time.Duration(e.Config.Storage.WatchDebounceMs) * time.Millisecond
}

// =============================================================================
// OUTPUT
// =============================================================================

// emit prints data as a JSON envelope in --json mode, otherwise runs human.
func (e *Env) emit(command string, data interface{}, human func(w io.Writer)) error {
	if e.Args.JSON {
		return NewJSONResponse(command, data).Print(e.Out)
	}
	human(e.Out)
	return nil
}
