// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/logging"
	"github.com/jeranaias/pocketllm-tui/internal/model"
	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/session"
)

// StatsFailedMessage is shown when stats cannot be fetched.
const StatsFailedMessage = "Failed to load system stats"

// DefaultInterval is the stats refresh period.
const DefaultInterval = 5 * time.Second

// Backend is the subset of the REST client admin needs.
type Backend interface {
	Stats(ctx context.Context) (model.Stats, error)
	ClearCache(ctx context.Context) error
}

// Service wraps the admin endpoints.
type Service struct {
	backend Backend
	bus     *notify.Bus
}

// NewService creates a Service. bus may be nil.
func NewService(backend Backend, bus *notify.Bus) *Service {
	if bus == nil {
		bus = notify.NewBus()
	}
	return &Service{backend: backend, bus: bus}
}

// Stats fetches the current backend statistics.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// ClearCache empties the backend cache after confirm approves.
func (s *Service) ClearCache(ctx context.Context, confirm session.Confirmer) error {
	if confirm == nil {
		return model.ErrCancelled
	}
	ok, err := confirm.Confirm(ctx, "Are you sure you want to clear the entire cache?")
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrCancelled
	}
	if err := s.backend.ClearCache(ctx); err != nil {
		logging.FromContext(ctx).Warn("clear cache failed", "error", err)
		s.bus.Error("Failed to clear cache")
		return fmt.Errorf("clear cache: %w", err)
	}
	s.bus.Success("Cache cleared successfully")
	return nil
}

// =============================================================================
// POLLER
// =============================================================================

// Update is one poll result. On failure Stats holds the last good value,
// if any, and Message is StatsFailedMessage.
type Update struct {
	Stats   model.Stats
	HasData bool
	Err     error
	Message string
	At      time.Time
}

// Poller fetches stats immediately and then every interval.
type Poller struct {
	svc      *Service
	interval time.Duration
	deliver  func(Update)
}

// NewPoller creates a Poller. A non-positive interval uses DefaultInterval.
func NewPoller(svc *Service, interval time.Duration, deliver func(Update)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{svc: svc, interval: interval, deliver: deliver}
}

// Run polls until ctx is done and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last Update
	poll := func() {
		stats, err := p.svc.Stats(ctx)
		if ctx.Err() != nil {
			return
		}
		u := Update{At: time.Now()}
		if err != nil {
			u.Stats, u.HasData = last.Stats, last.HasData
			u.Err = err
			u.Message = StatsFailedMessage
		} else {
			u.Stats, u.HasData = stats, true
		}
		last = u
		p.deliver(u)
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			poll()
		}
	}
}

// Ensure the REST client satisfies Backend.
var _ Backend = (*api.Client)(nil)
