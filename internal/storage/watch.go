// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// ErrNotWatchable is returned by Watch for in-memory databases.
var ErrNotWatchable = errors.New("in-memory store cannot be watched")

// Watch calls fn whenever the stored identity changes on disk, for example
// after a login or logout in another terminal. Events are debounced. Watch
// returns once the watcher is running; it stops when ctx is done.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, fn func(model.Identity)) error {
	if s.path == "" || s.path == ":memory:" {
		return ErrNotWatchable
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// The directory is watched so WAL and journal files are seen too.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	last, _ := s.Identity()
	base := filepath.Base(s.path)
	log := logging.WithFields("component", "storage.watch", "path", s.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		current, err := s.Identity()
		if err != nil {
			log.Warn("failed to read credentials after change", "error", err)
			return
		}
		mu.Lock()
		changed := current != last
		last = current
		mu.Unlock()
		if changed {
			log.Debug("credentials changed", "logged_in", current.LoggedIn())
			fn(current)
		}
	}

	go func() {
		defer watcher.Close()
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasPrefix(filepath.Base(event.Name), base) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if timer == nil {
					timer = time.AfterFunc(debounce, fire)
				} else {
					timer.Reset(debounce)
				}
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", "error", err)
			}
		}
	}()
	return nil
}
