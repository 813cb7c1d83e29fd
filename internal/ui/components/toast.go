// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pocketllm-tui/internal/notify"
	"github.com/jeranaias/pocketllm-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// DefaultToastDuration is the auto-dismiss duration for success and info toasts.
const DefaultToastDuration = 3 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 6 * time.Second

// WarningToastDuration is the auto-dismiss duration for warning toasts.
const WarningToastDuration = 5 * time.Second

// DefaultMaxToasts is how many toasts are visible at once.
const DefaultMaxToasts = 5

// Toast is one visible notification.
type Toast struct {
	ID        int64
	Message   string
	Kind      notify.Kind
	CreatedAt time.Time
	Duration  time.Duration
}

// DurationFor returns the auto-dismiss duration for kind.
func DurationFor(kind notify.Kind) time.Duration {
	switch kind {
	case notify.KindError:
		return ErrorToastDuration
	case notify.KindWarning:
		return WarningToastDuration
	default:
		return DefaultToastDuration
	}
}

// ToastFromNotification converts a bus notification into a toast.
func ToastFromNotification(n notify.Notification) Toast {
	created := n.Time
	if created.IsZero() {
		created = time.Now()
	}
	return Toast{
		ID:        n.ID,
		Message:   n.Message,
		Kind:      n.Kind,
		CreatedAt: created,
		Duration:  DurationFor(n.Kind),
	}
}

// ExpiredAt reports whether the toast should be gone at now.
func (t Toast) ExpiredAt(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// RemainingAt returns how long the toast stays visible after now.
func (t Toast) RemainingAt(now time.Time) time.Duration {
	remaining := t.Duration - now.Sub(t.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts. It is safe for concurrent use since
// bus listeners fire on whichever goroutine published the notification.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	maxToasts int
	base      time.Duration
	now       func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		maxToasts: DefaultMaxToasts,
		now:       time.Now,
	}
}

// Attach subscribes the manager to bus. The returned function unsubscribes.
func (m *ToastManager) Attach(bus *notify.Bus) (detach func()) {
	if bus == nil {
		return func() {}
	}
	return bus.Subscribe(func(n notify.Notification) {
		t := ToastFromNotification(n)
		m.mu.Lock()
		if m.base > 0 {
			t.Duration = t.Duration * m.base / DefaultToastDuration
		}
		m.mu.Unlock()
		m.Add(t)
	})
}

// SetBaseDuration sets how long info and success toasts stay up. Warning and
// error toasts keep their proportion to it.
func (m *ToastManager) SetBaseDuration(d time.Duration) {
	m.mu.Lock()
	m.base = d
	m.mu.Unlock()
}

// Add pushes a toast to the front of the stack, dropping the oldest once the
// stack is full.
func (m *ToastManager) Add(t Toast) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
}

// Dismiss removes the toast with id.
func (m *ToastManager) Dismiss(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast, if any.
func (m *ToastManager) DismissNewest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick drops expired toasts and returns the remaining ones.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.ExpiredAt(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the visible toasts, newest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// Len returns the number of visible toasts.
func (m *ToastManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that ticks toasts every 100ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast.
func RenderToast(theme *styles.Theme, t Toast, width int, now time.Time) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var icon string
	var iconStyle lipgloss.Style
	var border lipgloss.Color
	switch t.Kind {
	case notify.KindError:
		icon, iconStyle, border = theme.Indicators.Error, theme.ToastError, theme.Palette.Error
	case notify.KindWarning:
		icon, iconStyle, border = theme.Indicators.Warning, theme.ToastWarning, theme.Palette.Warning
	case notify.KindSuccess:
		icon, iconStyle, border = theme.Indicators.Success, theme.ToastSuccess, theme.Palette.Success
	default:
		icon, iconStyle, border = theme.Indicators.Info, theme.ToastInfo, theme.Palette.Info
	}

	message := wrapText(t.Message, maxWidth-10)
	body := lipgloss.NewStyle().Foreground(theme.Palette.TextPrimary).Render(message)
	content := iconStyle.Render(icon+" ") + body

	if secs := int(t.RemainingAt(now).Seconds()); secs > 0 {
		content += "\n" + theme.ShortcutDesc.Render("[x] Dismiss  "+strconv.Itoa(secs)+"s")
	}

	return theme.Toast.
		BorderForeground(border).
		MaxWidth(maxWidth).
		Render(content)
}

// RenderToastStack renders toasts stacked in the bottom-right corner.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width, height int, now time.Time) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		rendered = append(rendered, RenderToast(theme, toasts[i], width, now))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom, stack)
	}
	return stack
}

// wrapText performs simple word wrapping.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= maxWidth:
			line.WriteString(" ")
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
