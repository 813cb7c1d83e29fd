// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"sort"
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notification is one published message.
type Notification struct {
	ID      int64
	Message string
	Kind    Kind
	Time    time.Time
}

// Listener receives notifications.
type Listener func(Notification)

// Bus fans notifications out to subscribers. The zero value is not usable;
// call NewBus.
type Bus struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextSub   int
	nextID    int64
	now       func() time.Time
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[int]Listener),
		now:       time.Now,
	}
}

// Subscribe registers l and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Notify publishes a message to every current subscriber, in subscription
// order. Listeners run on the caller's goroutine outside the bus lock.
func (b *Bus) Notify(message string, kind Kind) Notification {
	b.mu.Lock()
	b.nextID++
	n := Notification{ID: b.nextID, Message: message, Kind: kind, Time: b.now()}

	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(n)
	}
	return n
}

// Success publishes a success notification.
func (b *Bus) Success(message string) { b.Notify(message, KindSuccess) }

// Error publishes an error notification.
func (b *Bus) Error(message string) { b.Notify(message, KindError) }

// Warning publishes a warning notification.
func (b *Bus) Warning(message string) { b.Notify(message, KindWarning) }

// Info publishes an informational notification.
func (b *Bus) Info(message string) { b.Notify(message, KindInfo) }

// Subscribers returns the number of registered listeners.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
