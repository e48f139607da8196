// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/models"
)

// memoryStore is a process-local [DurableStore]. Nothing survives a restart.
type memoryStore struct {
	mu        sync.RWMutex
	documents map[string]models.DocumentSnapshot
	changes   map[string]models.PendingChange
}

// NewMemoryStore returns an empty in-memory [DurableStore].
func NewMemoryStore() DurableStore {
	return &memoryStore{
		documents: make(map[string]models.DocumentSnapshot),
		changes:   make(map[string]models.PendingChange),
	}
}

func cloneSnapshot(d models.DocumentSnapshot) models.DocumentSnapshot {
	if d.Content != nil {
		d.Content = append(json.RawMessage(nil), d.Content...)
	}
	if d.ServerVersion != nil {
		d.ServerVersion = models.Int64Ptr(*d.ServerVersion)
	}
	return d
}

func cloneChange(c models.PendingChange) models.PendingChange {
	if c.Data.Name != nil {
		name := *c.Data.Name
		c.Data.Name = &name
	}
	if c.Data.Description != nil {
		description := *c.Data.Description
		c.Data.Description = &description
	}
	if c.Data.Content != nil {
		c.Data.Content = append(json.RawMessage(nil), c.Data.Content...)
	}
	return c
}

func (m *memoryStore) Put(_ context.Context, snapshot models.DocumentSnapshot) error {
	if snapshot.ID == "" || !snapshot.SyncStatus.Valid() {
		return ErrInvalidSnapshot
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[snapshot.ID] = cloneSnapshot(snapshot)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (models.DocumentSnapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.documents[id]
	if !ok {
		return models.DocumentSnapshot{}, false, nil
	}
	return cloneSnapshot(d), true, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

func (m *memoryStore) ListByStatus(_ context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.DocumentSnapshot, 0, len(m.documents))
	for _, d := range m.documents {
		if d.SyncStatus == status {
			result = append(result, cloneSnapshot(d))
		}
	}
	sortSnapshots(result)
	return result, nil
}

func (m *memoryStore) AddPendingChange(_ context.Context, change models.PendingChange) error {
	if change.ID == "" || change.DocumentID == "" {
		return ErrInvalidChange
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[change.ID] = cloneChange(change)
	return nil
}

func (m *memoryStore) ListPendingChanges(_ context.Context, documentID string) ([]models.PendingChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.PendingChange, 0, 4)
	for _, c := range m.changes {
		if c.DocumentID == documentID {
			result = append(result, cloneChange(c))
		}
	}
	sortChanges(result)
	return result, nil
}

func (m *memoryStore) RemovePendingChange(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.changes, id)
	return nil
}

func (m *memoryStore) ClearPendingChanges(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.changes {
		if c.DocumentID == documentID {
			delete(m.changes, id)
		}
	}
	return nil
}

func (m *memoryStore) EvictOlderThan(_ context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	cutoff := time.Now().Add(-age)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, d := range m.documents {
		if d.SyncStatus != models.SyncStatusSynced || !d.LastModified.Before(cutoff) {
			continue
		}
		delete(m.documents, id)
		for changeID, c := range m.changes {
			if c.DocumentID == id {
				delete(m.changes, changeID)
			}
		}
		evicted++
	}

	if !onlyIfSynced {
		for changeID, c := range m.changes {
			if _, ok := m.documents[c.DocumentID]; !ok && c.Timestamp.Before(cutoff) {
				delete(m.changes, changeID)
			}
		}
	}

	return evicted, nil
}

func (m *memoryStore) Close() error {
	return nil
}

func sortSnapshots(s []models.DocumentSnapshot) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].LastModified.Equal(s[j].LastModified) {
			return s[i].ID < s[j].ID
		}
		return s[i].LastModified.Before(s[j].LastModified)
	})
}

func sortChanges(c []models.PendingChange) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Timestamp.Equal(c[j].Timestamp) {
			return c[i].ID < c[j].ID
		}
		return c[i].Timestamp.Before(c[j].Timestamp)
	})
}
