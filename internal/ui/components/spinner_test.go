// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner(styles.NewTheme("dark"), "Sending...")

	if s.IsActive() {
		t.Fatal("new spinner should be inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	if cmd := s.Start(); cmd == nil {
		t.Error("Start should return a tick command")
	}
	if cmd := s.Start(); cmd != nil {
		t.Error("second Start should be a no-op")
	}
	if !strings.Contains(s.View(), "Sending...") {
		t.Errorf("active spinner should show its message, got %q", s.View())
	}

	s.Stop()
	if s.IsActive() {
		t.Error("Stop should deactivate")
	}
	if _, cmd := s.Update(nil); cmd != nil {
		t.Error("stopped spinner should not schedule ticks")
	}
}
