// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"sync"

	"github.com/MKhiriev/go-doc-sync/models"
)

// GlobalStatus summarizes the most urgent outstanding sync operation of a
// [SyncManager].
type GlobalStatus string

const (
	StatusIdle     GlobalStatus = "idle"
	StatusSyncing  GlobalStatus = "syncing"
	StatusOffline  GlobalStatus = "offline"
	StatusConflict GlobalStatus = "conflict"
	StatusError    GlobalStatus = "error"
)

// StatusChangeEvent is published when connectivity, the global status or the
// storage mode changes. Online is set only on connectivity transitions.
type StatusChangeEvent struct {
	Online          *bool
	Status          GlobalStatus
	StorageDegraded bool
}

// SyncCompleteEvent is published after the remote store confirmed a document.
type SyncCompleteEvent struct {
	DocumentID string
	Version    int64
}

// ErrorEvent is published when a push fails for any reason other than a
// conflict or being offline.
type ErrorEvent struct {
	DocumentID string
	Err        error
}

// Topic is a typed publish/subscribe channel. Handlers run synchronously on
// the publishing goroutine, outside any lock held by the publisher.
type Topic[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	if t.handlers == nil {
		t.handlers = make(map[int]func(T))
	}
	id := t.nextID
	t.nextID++
	t.handlers[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.handlers, id)
			t.mu.Unlock()
		})
	}
}

// Publish delivers v to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	handlers := make([]func(T), 0, len(t.handlers))
	for _, fn := range t.handlers {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(v)
	}
}

// Events groups the topics a [SyncManager] publishes on.
type Events struct {
	StatusChange Topic[StatusChangeEvent]
	Conflict     Topic[models.ConflictInfo]
	SyncComplete Topic[SyncCompleteEvent]
	Error        Topic[ErrorEvent]
}
