// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// DegradingStore wraps a persistent [DurableStore] and mirrors every
// successful operation into an in-memory store. Once the primary reports
// [ErrStoreUnavailable] the wrapper switches to memory-only operation for
// the rest of the process lifetime: edits are still accepted but do not
// survive a restart.
type DegradingStore struct {
	mu        sync.RWMutex
	primary   DurableStore
	memory    DurableStore
	degraded  bool
	cause     error
	onDegrade []func(error)
	logger    *logger.Logger
}

// NewDegradingStore wraps primary. A nil primary yields a store that is
// degraded from the start, used when the durable backend cannot be opened.
func NewDegradingStore(primary DurableStore, log *logger.Logger) *DegradingStore {
	s := &DegradingStore{
		primary: primary,
		memory:  NewMemoryStore(),
		logger:  log,
	}
	if primary == nil {
		s.degraded = true
		s.cause = ErrStoreUnavailable
	}
	return s
}

// Warm copies every unsynced snapshot and its pending changes into the
// memory mirror, so a later switch to memory-only mode keeps them.
func (s *DegradingStore) Warm(ctx context.Context) error {
	if s.Degraded() {
		return nil
	}
	warmed := 0
	for _, status := range []models.SyncStatus{models.SyncStatusPending, models.SyncStatusConflict} {
		snapshots, err := s.ListByStatus(ctx, status)
		if err != nil {
			return fmt.Errorf("warm %s snapshots: %w", status, err)
		}
		for _, snapshot := range snapshots {
			if _, err = s.ListPendingChanges(ctx, snapshot.ID); err != nil {
				return fmt.Errorf("warm pending changes of %s: %w", snapshot.ID, err)
			}
		}
		warmed += len(snapshots)
	}
	s.logger.Debug().Str("func", "DegradingStore.Warm").Int("snapshots", warmed).Msg("memory mirror warmed")
	return nil
}

// Degraded reports whether the store is operating memory-only.
func (s *DegradingStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Cause returns the error that triggered degradation, or nil.
func (s *DegradingStore) Cause() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cause
}

// OnDegrade registers fn to be called once when the store degrades. If it
// already has, fn is called immediately.
func (s *DegradingStore) OnDegrade(fn func(error)) {
	s.mu.Lock()
	if s.degraded {
		cause := s.cause
		s.mu.Unlock()
		fn(cause)
		return
	}
	s.onDegrade = append(s.onDegrade, fn)
	s.mu.Unlock()
}

func (s *DegradingStore) degrade(err error) {
	s.mu.Lock()
	if s.degraded {
		s.mu.Unlock()
		return
	}
	s.degraded = true
	s.cause = err
	handlers := s.onDegrade
	s.onDegrade = nil
	s.mu.Unlock()

	s.logger.Error().Err(err).Str("func", "DegradingStore.degrade").Msg("durable store unavailable, continuing in memory only")
	for _, fn := range handlers {
		fn(err)
	}
}

// run executes op against the primary and mirrors it into memory. When the
// primary is (or becomes) unavailable only the memory mirror is used.
func (s *DegradingStore) run(ctx context.Context, op func(ctx context.Context, st DurableStore) error) error {
	if !s.Degraded() {
		err := op(ctx, s.primary)
		if err == nil {
			return op(ctx, s.memory)
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		s.degrade(err)
	}
	return op(ctx, s.memory)
}

func (s *DegradingStore) Put(ctx context.Context, snapshot models.DocumentSnapshot) error {
	return s.run(ctx, func(ctx context.Context, st DurableStore) error {
		return st.Put(ctx, snapshot)
	})
}

func (s *DegradingStore) Get(ctx context.Context, id string) (models.DocumentSnapshot, bool, error) {
	if !s.Degraded() {
		snapshot, found, err := s.primary.Get(ctx, id)
		if err == nil {
			if found {
				_ = s.memory.Put(ctx, snapshot)
			}
			return snapshot, found, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return models.DocumentSnapshot{}, false, err
		}
		s.degrade(err)
	}
	return s.memory.Get(ctx, id)
}

func (s *DegradingStore) Delete(ctx context.Context, id string) error {
	return s.run(ctx, func(ctx context.Context, st DurableStore) error {
		return st.Delete(ctx, id)
	})
}

func (s *DegradingStore) ListByStatus(ctx context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error) {
	if !s.Degraded() {
		list, err := s.primary.ListByStatus(ctx, status)
		if err == nil {
			for _, snapshot := range list {
				_ = s.memory.Put(ctx, snapshot)
			}
			return list, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		s.degrade(err)
	}
	return s.memory.ListByStatus(ctx, status)
}

func (s *DegradingStore) AddPendingChange(ctx context.Context, change models.PendingChange) error {
	return s.run(ctx, func(ctx context.Context, st DurableStore) error {
		return st.AddPendingChange(ctx, change)
	})
}

func (s *DegradingStore) ListPendingChanges(ctx context.Context, documentID string) ([]models.PendingChange, error) {
	if !s.Degraded() {
		list, err := s.primary.ListPendingChanges(ctx, documentID)
		if err == nil {
			for _, change := range list {
				_ = s.memory.AddPendingChange(ctx, change)
			}
			return list, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		s.degrade(err)
	}
	return s.memory.ListPendingChanges(ctx, documentID)
}

func (s *DegradingStore) RemovePendingChange(ctx context.Context, id string) error {
	return s.run(ctx, func(ctx context.Context, st DurableStore) error {
		return st.RemovePendingChange(ctx, id)
	})
}

func (s *DegradingStore) ClearPendingChanges(ctx context.Context, documentID string) error {
	return s.run(ctx, func(ctx context.Context, st DurableStore) error {
		return st.ClearPendingChanges(ctx, documentID)
	})
}

func (s *DegradingStore) EvictOlderThan(ctx context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	if !s.Degraded() {
		evicted, err := s.primary.EvictOlderThan(ctx, age, onlyIfSynced)
		if err == nil {
			_, _ = s.memory.EvictOlderThan(ctx, age, onlyIfSynced)
			return evicted, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return 0, err
		}
		s.degrade(err)
	}
	return s.memory.EvictOlderThan(ctx, age, onlyIfSynced)
}

func (s *DegradingStore) Close() error {
	if s.primary == nil {
		return s.memory.Close()
	}
	return errors.Join(s.primary.Close(), s.memory.Close())
}
