// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

func TestDurationFor(t *testing.T) {
	tests := []struct {
		kind notify.Kind
		want time.Duration
	}{
		{notify.KindSuccess, DefaultToastDuration},
		{notify.KindInfo, DefaultToastDuration},
		{notify.KindWarning, WarningToastDuration},
		{notify.KindError, ErrorToastDuration},
	}
	for _, tt := range tests {
		if got := DurationFor(tt.kind); got != tt.want {
			t.Errorf("DurationFor(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if DefaultToastDuration != 3*time.Second {
		t.Errorf("DefaultToastDuration = %v, want 3s", DefaultToastDuration)
	}
}

func TestToastExpiry(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	toast := Toast{CreatedAt: base, Duration: 3 * time.Second}

	if toast.ExpiredAt(base.Add(2 * time.Second)) {
		t.Error("toast should still be visible after 2s")
	}
	if !toast.ExpiredAt(base.Add(3 * time.Second)) {
		t.Error("toast should expire after 3s")
	}
	if got := toast.RemainingAt(base.Add(time.Second)); got != 2*time.Second {
		t.Errorf("RemainingAt = %v, want 2s", got)
	}
	if got := toast.RemainingAt(base.Add(time.Minute)); got != 0 {
		t.Errorf("RemainingAt after expiry = %v, want 0", got)
	}
}

func TestToastManagerAttachFollowsBus(t *testing.T) {
	bus := notify.NewBus()
	m := NewToastManager()
	detach := m.Attach(bus)

	bus.Success("Session cleared")
	bus.Error("Failed to send message: boom")

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].Kind != notify.KindError {
		t.Errorf("newest toast kind = %s, want error", toasts[0].Kind)
	}
	if toasts[0].Duration != ErrorToastDuration {
		t.Errorf("error toast duration = %v, want %v", toasts[0].Duration, ErrorToastDuration)
	}
	if toasts[1].Message != "Session cleared" {
		t.Errorf("oldest toast message = %q", toasts[1].Message)
	}

	detach()
	bus.Info("ignored")
	if m.Len() != 2 {
		t.Errorf("detached manager still received toasts: %d", m.Len())
	}
}

func TestToastManagerBaseDurationScales(t *testing.T) {
	bus := notify.NewBus()
	m := NewToastManager()
	m.SetBaseDuration(6 * time.Second)
	defer m.Attach(bus)()

	bus.Info("hello")
	bus.Error("boom")

	toasts := m.Toasts()
	if toasts[1].Duration != 6*time.Second {
		t.Errorf("info duration = %v, want 6s", toasts[1].Duration)
	}
	if toasts[0].Duration != 12*time.Second {
		t.Errorf("error duration = %v, want 12s", toasts[0].Duration)
	}
}

func TestToastManagerAttachNilBus(t *testing.T) {
	m := NewToastManager()
	m.Attach(nil)()
	if m.Len() != 0 {
		t.Error("nil bus should not add toasts")
	}
}

func TestToastManagerTickExpires(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	m := NewToastManager()
	m.now = func() time.Time { return now }

	m.Add(Toast{ID: 1, Message: "ok", Kind: notify.KindSuccess, CreatedAt: base, Duration: DefaultToastDuration})
	m.Add(Toast{ID: 2, Message: "bad", Kind: notify.KindError, CreatedAt: base, Duration: ErrorToastDuration})

	now = base.Add(4 * time.Second)
	remaining := m.Tick()
	if len(remaining) != 1 || remaining[0].ID != 2 {
		t.Fatalf("after 4s expected only the error toast, got %+v", remaining)
	}

	now = base.Add(7 * time.Second)
	if got := m.Tick(); len(got) != 0 {
		t.Errorf("after 7s expected no toasts, got %d", len(got))
	}
}

func TestToastManagerLimitAndDismiss(t *testing.T) {
	m := NewToastManager()
	for i := int64(1); i <= DefaultMaxToasts+2; i++ {
		m.Add(Toast{ID: i, CreatedAt: time.Now(), Duration: time.Minute})
	}
	if m.Len() != DefaultMaxToasts {
		t.Fatalf("Len = %d, want %d", m.Len(), DefaultMaxToasts)
	}

	newest := m.Toasts()[0].ID
	m.DismissNewest()
	for _, toast := range m.Toasts() {
		if toast.ID == newest {
			t.Error("DismissNewest left the newest toast")
		}
	}

	target := m.Toasts()[1].ID
	m.Dismiss(target)
	for _, toast := range m.Toasts() {
		if toast.ID == target {
			t.Errorf("Dismiss(%d) left the toast", target)
		}
	}
	if m.Len() != DefaultMaxToasts-2 {
		t.Errorf("Len = %d, want %d", m.Len(), DefaultMaxToasts-2)
	}
}

func TestRenderToastStack(t *testing.T) {
	theme := styles.NewTheme("dark")
	now := time.Now()
	toasts := []Toast{
		{ID: 2, Message: "Failed to delete message", Kind: notify.KindError, CreatedAt: now, Duration: ErrorToastDuration},
		{ID: 1, Message: "Session cleared", Kind: notify.KindSuccess, CreatedAt: now, Duration: DefaultToastDuration},
	}

	out := RenderToastStack(theme, toasts, 0, 0, now)
	if !strings.Contains(out, "Failed to delete message") || !strings.Contains(out, "Session cleared") {
		t.Errorf("stack missing messages:\n%s", out)
	}
	if strings.Index(out, "Session cleared") > strings.Index(out, "Failed to delete message") {
		t.Error("newest toast should render at the bottom")
	}
	if !strings.Contains(out, theme.Indicators.Error) {
		t.Error("error toast should carry the error indicator")
	}

	if RenderToastStack(theme, nil, 80, 24, now) != "" {
		t.Error("empty stack should render nothing")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("wrapText = %q", got)
	}
	if wrapText("", 10) != "" {
		t.Error("empty text should stay empty")
	}
}
