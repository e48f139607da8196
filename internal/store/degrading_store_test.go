// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// flakyStore delegates to a memory store until broken is set, then fails
// every call with err.
type flakyStore struct {
	DurableStore
	broken bool
	err    error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{DurableStore: NewMemoryStore(), err: fmt.Errorf("%w: disk gone", ErrStoreUnavailable)}
}

func (f *flakyStore) Put(ctx context.Context, d models.DocumentSnapshot) error {
	if f.broken {
		return f.err
	}
	return f.DurableStore.Put(ctx, d)
}

func (f *flakyStore) Get(ctx context.Context, id string) (models.DocumentSnapshot, bool, error) {
	if f.broken {
		return models.DocumentSnapshot{}, false, f.err
	}
	return f.DurableStore.Get(ctx, id)
}

func (f *flakyStore) AddPendingChange(ctx context.Context, c models.PendingChange) error {
	if f.broken {
		return f.err
	}
	return f.DurableStore.AddPendingChange(ctx, c)
}

func (f *flakyStore) ListByStatus(ctx context.Context, s models.SyncStatus) ([]models.DocumentSnapshot, error) {
	if f.broken {
		return nil, f.err
	}
	return f.DurableStore.ListByStatus(ctx, s)
}

func TestDegradingStore_HealthyPassesThrough(t *testing.T) {
	ctx := context.Background()
	primary := newFlakyStore()
	s := NewDegradingStore(primary, logger.Nop())

	require.NoError(t, s.Put(ctx, snapshot("wf-1", 1, models.SyncStatusPending, time.Now())))

	_, found, err := primary.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, s.Degraded())
	assert.NoError(t, s.Cause())
}

func TestDegradingStore_SwitchesToMemoryOnUnavailable(t *testing.T) {
	ctx := context.Background()
	primary := newFlakyStore()
	s := NewDegradingStore(primary, logger.Nop())

	var notified []error
	s.OnDegrade(func(err error) { notified = append(notified, err) })

	// working set seen before the failure stays readable
	require.NoError(t, s.Put(ctx, snapshot("wf-1", 1, models.SyncStatusSynced, time.Now())))

	primary.broken = true

	// Act: the edit is accepted even though the disk is gone
	err := s.Put(ctx, snapshot("wf-2", 1, models.SyncStatusPending, time.Now()))

	// Assert
	require.NoError(t, err)
	assert.True(t, s.Degraded())
	assert.ErrorIs(t, s.Cause(), ErrStoreUnavailable)
	require.Len(t, notified, 1)

	got, found, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "wf-1", got.ID)

	_, found, err = s.Get(ctx, "wf-2")
	require.NoError(t, err)
	assert.True(t, found)

	pending, err := s.ListByStatus(ctx, models.SyncStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	// late subscribers learn about the degradation immediately
	late := false
	s.OnDegrade(func(error) { late = true })
	assert.True(t, late)
	assert.Len(t, notified, 1)
}

func TestDegradingStore_WarmKeepsUntouchedUnsyncedDocuments(t *testing.T) {
	ctx := context.Background()
	primary := newFlakyStore()
	require.NoError(t, primary.Put(ctx, snapshot("wf-pending", 4, models.SyncStatusPending, time.Now())))
	require.NoError(t, primary.Put(ctx, snapshot("wf-conflict", 7, models.SyncStatusConflict, time.Now())))
	require.NoError(t, primary.Put(ctx, snapshot("wf-synced", 2, models.SyncStatusSynced, time.Now())))
	require.NoError(t, primary.AddPendingChange(ctx, models.PendingChange{ID: "c1", DocumentID: "wf-pending", Version: 4, Timestamp: time.Now()}))

	s := NewDegradingStore(primary, logger.Nop())
	require.NoError(t, s.Warm(ctx))

	primary.broken = true

	got, found, err := s.Get(ctx, "wf-pending")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(4), got.Version)
	assert.True(t, s.Degraded())

	conflicts, err := s.ListByStatus(ctx, models.SyncStatusConflict)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "wf-conflict", conflicts[0].ID)

	changes, err := s.ListPendingChanges(ctx, "wf-pending")
	require.NoError(t, err)
	assert.Len(t, changes, 1)

	_, found, err = s.Get(ctx, "wf-synced")
	require.NoError(t, err)
	assert.False(t, found, "synced copies are refetched from the server")
}

func TestDegradingStore_OtherErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	primary := newFlakyStore()
	primary.err = errors.New("malformed row")
	primary.broken = true
	s := NewDegradingStore(primary, logger.Nop())

	_, _, err := s.Get(ctx, "wf-1")

	assert.EqualError(t, err, "malformed row")
	assert.False(t, s.Degraded())
}

func TestDegradingStore_NilPrimaryStartsDegraded(t *testing.T) {
	ctx := context.Background()
	s := NewDegradingStore(nil, logger.Nop())

	assert.True(t, s.Degraded())
	require.NoError(t, s.Put(ctx, snapshot("wf-1", 1, models.SyncStatusPending, time.Now())))
	_, found, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NoError(t, s.Close())
}
