// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/connectivity"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/mock"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

type seqIDs struct {
	n atomic.Int64
}

func (s *seqIDs) Generate() string {
	return fmt.Sprintf("change-%d", s.n.Add(1))
}

func testSyncConfig() config.ClientSync {
	return config.ClientSync{DebounceDelay: 30 * time.Millisecond, MaxRetries: 2}
}

func newTestManager(t *testing.T, remote adapter.ServerAdapter, monitor connectivity.Monitor) (*SyncManager, store.DurableStore) {
	t.Helper()
	st := store.NewMemoryStore()
	m := NewSyncManager(st, remote, monitor, testSyncConfig(), &seqIDs{}, logger.Nop())
	t.Cleanup(func() { _ = m.Close() })
	return m, st
}

func putSnapshot(t *testing.T, st store.DurableStore, snap models.DocumentSnapshot) {
	t.Helper()
	if snap.LastModified.IsZero() {
		snap.LastModified = time.Now()
	}
	require.NoError(t, st.Put(context.Background(), snap))
}

func getSnapshot(t *testing.T, st store.DurableStore, id string) models.DocumentSnapshot {
	t.Helper()
	snap, found, err := st.Get(context.Background(), id)
	require.NoError(t, err)
	require.True(t, found, "snapshot %s not found", id)
	return snap
}

func statusIs(st store.DurableStore, id string, status models.SyncStatus) func() bool {
	return func() bool {
		snap, found, err := st.Get(context.Background(), id)
		return err == nil && found && snap.SyncStatus == status
	}
}

func strPtr(s string) *string {
	return &s
}

// ── RecordEdit ───────────────────────────────────────────────────────────────

func TestSyncManager_RecordEdit_VersionMonotonicity(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))
	ctx := context.Background()

	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 3, ServerVersion: models.Int64Ptr(3), SyncStatus: models.SyncStatusSynced})

	for i := 0; i < 4; i++ {
		_, err := m.RecordEdit(ctx, "wf-1", models.DocumentEdit{Name: strPtr(fmt.Sprintf("edit %d", i))})
		require.NoError(t, err)
	}

	snap := getSnapshot(t, st, "wf-1")
	assert.Equal(t, int64(7), snap.Version)
	assert.Equal(t, int64(3), snap.BaseVersion())
	assert.Equal(t, models.SyncStatusPending, snap.SyncStatus)
	assert.Equal(t, "edit 3", snap.Name)
}

func TestSyncManager_RecordEdit_NewDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, _ := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))

	snap, err := m.RecordEdit(context.Background(), "wf-new", models.DocumentEdit{Content: json.RawMessage(`{"nodes":[]}`)})

	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Nil(t, snap.ServerVersion)
	assert.Equal(t, models.SyncStatusPending, snap.SyncStatus)
	assert.JSONEq(t, `{"nodes":[]}`, string(snap.Content))
}

func TestSyncManager_RecordEdit_KeepsConflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusConflict})

	snap, err := m.RecordEdit(context.Background(), "wf-1", models.DocumentEdit{Name: strPtr("x")})

	require.NoError(t, err)
	assert.Equal(t, int64(6), snap.Version)
	assert.Equal(t, models.SyncStatusConflict, snap.SyncStatus)
}

func TestSyncManager_RecordEdit_EmptyID(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, _ := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))

	_, err := m.RecordEdit(context.Background(), "", models.DocumentEdit{})

	assert.ErrorIs(t, err, ErrEmptyDocumentID)
}

// ── Debounce ─────────────────────────────────────────────────────────────────

func TestSyncManager_DebounceCoalescesBurst(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()

	var mu sync.Mutex
	var got models.UpdateRequest
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			mu.Lock()
			got = req
			mu.Unlock()
			return models.UpdateResponse{Version: 1}, nil
		}).Times(1)

	for i := 1; i <= 5; i++ {
		_, err := m.RecordEdit(ctx, "wf-1", models.DocumentEdit{Name: strPtr(fmt.Sprintf("v%d", i))})
		require.NoError(t, err)
		m.ScheduleSync("wf-1")
	}

	require.Eventually(t, statusIs(st, "wf-1", models.SyncStatusSynced), waitFor, tick)

	mu.Lock()
	assert.Equal(t, "v5", got.Name)
	assert.Equal(t, int64(0), got.ExpectedVersion)
	assert.False(t, got.ForceOverwrite)
	mu.Unlock()

	snap := getSnapshot(t, st, "wf-1")
	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, int64(1), *snap.ServerVersion)
	assert.Equal(t, StatusIdle, m.Status())
}

func TestSyncManager_SyncNowCancelsDebounce(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusPending})

	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).Return(models.UpdateResponse{Version: 2}, nil).Times(1)

	m.ScheduleSync("wf-1")
	res, err := m.SyncNow(ctx, "wf-1")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.True(t, res.OK())

	// the cancelled timer must not produce a second push
	time.Sleep(3 * testSyncConfig().DebounceDelay)
	assert.False(t, m.InFlight("wf-1"))
}

func TestSyncManager_SyncNow_AlreadySynced(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 2, ServerVersion: models.Int64Ptr(2), SyncStatus: models.SyncStatusSynced})

	res, err := m.SyncNow(context.Background(), "wf-1")

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
}

func TestSyncManager_SyncNow_UnknownDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, _ := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))

	_, err := m.SyncNow(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

// ── Offline ──────────────────────────────────────────────────────────────────

func TestSyncManager_OfflineEditFlushedOnReconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	monitor := connectivity.NewManual(true)
	m, st := newTestManager(t, remote, monitor)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 3, ServerVersion: models.Int64Ptr(3), SyncStatus: models.SyncStatusSynced})

	monitor.SetOnline(false)
	snap, err := m.RecordEdit(ctx, "wf-1", models.DocumentEdit{Name: strPtr("offline edit")})
	require.NoError(t, err)
	assert.Equal(t, int64(4), snap.Version)

	res, err := m.SyncNow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeOffline, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrOffline)
	assert.Equal(t, StatusOffline, m.Status())

	changes, err := st.ListPendingChanges(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, int64(4), changes[0].Version)
	assert.Equal(t, 0, changes[0].RetryCount)
	assert.Equal(t, models.ChangeUpdate, changes[0].Type)
	assert.Equal(t, "offline edit", *changes[0].Data.Name)

	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			assert.Equal(t, int64(3), req.ExpectedVersion)
			return models.UpdateResponse{Version: 4}, nil
		}).Times(1)

	monitor.SetOnline(true)

	require.Eventually(t, statusIs(st, "wf-1", models.SyncStatusSynced), waitFor, tick)
	snap = getSnapshot(t, st, "wf-1")
	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, int64(4), *snap.ServerVersion)

	changes, err = st.ListPendingChanges(ctx, "wf-1")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSyncManager_StartFlushesPendingDocuments(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusPending})
	putSnapshot(t, st, models.DocumentSnapshot{ID: "draft", SyncStatus: models.SyncStatusPending})

	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-1", gomock.Any()).Return(models.UpdateResponse{Version: 2}, nil).Times(1)

	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, statusIs(st, "wf-1", models.SyncStatusSynced), waitFor, tick)
}

func TestSyncManager_StartRestoresStoredConflicts(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-2", Name: "mine", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusConflict})
	assert.Equal(t, StatusIdle, m.Status())

	require.NoError(t, m.Start(context.Background()))

	assert.Equal(t, StatusConflict, m.Status())
	info, ok := m.Conflict("wf-2")
	require.True(t, ok)
	assert.Equal(t, int64(5), info.LocalVersion)
	assert.Equal(t, int64(4), info.ServerVersion)

	n, err := m.RestoreConflicts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "already known conflicts are not restored twice")
}

func TestSyncManager_StatusChangeEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	monitor := connectivity.NewManual(true)
	m, _ := newTestManager(t, mock.NewMockServerAdapter(ctrl), monitor)
	require.NoError(t, m.Start(context.Background()))

	var mu sync.Mutex
	var got []StatusChangeEvent
	m.Events().StatusChange.Subscribe(func(e StatusChangeEvent) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	monitor.SetOnline(false)
	monitor.SetOnline(true)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Online)
	assert.False(t, *got[0].Online)
	assert.Equal(t, StatusOffline, got[0].Status)
	require.NotNil(t, got[1].Online)
	assert.True(t, *got[1].Online)
	assert.Equal(t, StatusIdle, got[1].Status)
}

// ── Conflict ─────────────────────────────────────────────────────────────────

func TestSyncManager_ConflictThenResolveWithLocal(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-2", Name: "mine", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusPending})

	server := models.RemoteDocument{ID: "wf-2", Name: "theirs", Version: 6}
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-2", gomock.Any()).
		Return(models.UpdateResponse{}, &adapter.ConflictError{Server: server}).Times(1)

	var conflicts []models.ConflictInfo
	m.Events().Conflict.Subscribe(func(info models.ConflictInfo) { conflicts = append(conflicts, info) })

	res, err := m.SyncNow(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrConflict)

	var conflictErr *ConflictError
	require.ErrorAs(t, res.Err, &conflictErr)
	assert.Equal(t, int64(5), conflictErr.Info.LocalVersion)
	assert.Equal(t, int64(6), conflictErr.Info.ServerVersion)
	assert.Equal(t, "mine", *conflictErr.Info.LocalData.Name)
	assert.Equal(t, "theirs", conflictErr.Info.ServerData.Name)

	assert.Equal(t, models.SyncStatusConflict, getSnapshot(t, st, "wf-2").SyncStatus)
	assert.Equal(t, StatusConflict, m.Status())
	require.Len(t, conflicts, 1)

	// no automatic retry while the conflict is open
	res, err = m.SyncNow(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConflict, res.Outcome)

	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-2", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			assert.True(t, req.ForceOverwrite)
			assert.Equal(t, "mine", req.Name)
			return models.UpdateResponse{Version: 7}, nil
		}).Times(1)

	res, err = m.ResolveWithLocal(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)

	snap := getSnapshot(t, st, "wf-2")
	assert.Equal(t, int64(7), snap.Version)
	assert.Equal(t, int64(7), *snap.ServerVersion)
	assert.Equal(t, models.SyncStatusSynced, snap.SyncStatus)
	assert.Equal(t, StatusIdle, m.Status())
	_, open := m.Conflict("wf-2")
	assert.False(t, open)

	res, err = m.ResolveWithLocal(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
}

func TestSyncManager_ResolveWithServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-3", Name: "mine", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusConflict})
	require.NoError(t, st.AddPendingChange(ctx, models.PendingChange{ID: "c1", DocumentID: "wf-3", Version: 5, Timestamp: time.Now()}))

	server := models.RemoteDocument{ID: "wf-3", Name: "server", Description: "d", Content: json.RawMessage(`{"a":1}`), Version: 9}
	remote.EXPECT().GetDocument(gomock.Any(), "wf-3").Return(server, nil).Times(1)

	res, err := m.ResolveWithServer(ctx, "wf-3")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, int64(9), res.Version)

	snap := getSnapshot(t, st, "wf-3")
	assert.Equal(t, "server", snap.Name)
	assert.Equal(t, "d", snap.Description)
	assert.JSONEq(t, `{"a":1}`, string(snap.Content))
	assert.Equal(t, int64(9), snap.Version)
	assert.Equal(t, int64(9), *snap.ServerVersion)
	assert.Equal(t, models.SyncStatusSynced, snap.SyncStatus)

	changes, err := st.ListPendingChanges(ctx, "wf-3")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSyncManager_ResolveWithServer_Offline(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(false))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-3", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusConflict})

	res, err := m.ResolveWithServer(context.Background(), "wf-3")

	require.NoError(t, err)
	assert.Equal(t, OutcomeOffline, res.Outcome)
	assert.Equal(t, models.SyncStatusConflict, getSnapshot(t, st, "wf-3").SyncStatus)
}

// ── Failures ─────────────────────────────────────────────────────────────────

func TestSyncManager_TransientFailureBoundedRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-4", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusPending})

	errBoom := fmt.Errorf("%w: connection refused", adapter.ErrTransient)
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-4", gomock.Any()).Return(models.UpdateResponse{}, errBoom).Times(3)

	var errEvents []ErrorEvent
	m.Events().Error.Subscribe(func(e ErrorEvent) { errEvents = append(errEvents, e) })

	var transientErr *TransientError

	res, err := m.SyncNow(ctx, "wf-4")
	require.NoError(t, err)
	assert.Equal(t, OutcomeTransient, res.Outcome)
	require.ErrorAs(t, res.Err, &transientErr)
	assert.Equal(t, 0, transientErr.RetryCount)
	assert.False(t, transientErr.Exhausted)
	assert.Equal(t, StatusError, m.Status())

	res, err = m.Retry(ctx, "wf-4")
	require.NoError(t, err)
	require.ErrorAs(t, res.Err, &transientErr)
	assert.Equal(t, 1, transientErr.RetryCount)
	assert.NotErrorIs(t, res.Err, ErrRetriesExhausted)

	res, err = m.Retry(ctx, "wf-4")
	require.NoError(t, err)
	require.ErrorAs(t, res.Err, &transientErr)
	assert.Equal(t, 2, transientErr.RetryCount)
	assert.ErrorIs(t, res.Err, ErrRetriesExhausted)
	assert.ErrorIs(t, res.Err, ErrTransient)
	assert.ErrorIs(t, res.Err, adapter.ErrTransient)

	assert.Len(t, errEvents, 3)
	assert.Equal(t, models.SyncStatusPending, getSnapshot(t, st, "wf-4").SyncStatus)

	changes, err := st.ListPendingChanges(ctx, "wf-4")
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 2, changes[0].RetryCount)
}

func TestSyncManager_ValidationRejectedIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-5", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusPending})

	rejected := &adapter.ValidationError{
		Status:  400,
		Message: "invalid document",
		Fields:  []models.FieldError{{Field: "name", Message: "name is required"}},
	}
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-5", gomock.Any()).Return(models.UpdateResponse{}, rejected).Times(1)

	res, err := m.SyncNow(ctx, "wf-5")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrValidationRejected)

	var validationErr *ValidationError
	require.ErrorAs(t, res.Err, &validationErr)
	assert.Equal(t, "invalid document", validationErr.Message)
	require.Len(t, validationErr.Fields, 1)

	changes, err := st.ListPendingChanges(ctx, "wf-5")
	require.NoError(t, err)
	assert.Empty(t, changes)

	results, err := m.FlushPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, results, "rejected payload is skipped")

	_, err = m.RecordEdit(ctx, "wf-5", models.DocumentEdit{Name: strPtr("fixed")})
	require.NoError(t, err)
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-5", gomock.Any()).Return(models.UpdateResponse{Version: 2}, nil).Times(1)

	results, err = m.FlushPending(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeSynced, results[0].Outcome)
}

// ── In-flight ordering ───────────────────────────────────────────────────────

func TestSyncManager_EditDuringPushStaysPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-6", Version: 3, ServerVersion: models.Int64Ptr(2), SyncStatus: models.SyncStatusPending})

	entered, release := make(chan struct{}), make(chan struct{})
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-6", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			assert.Equal(t, int64(2), req.ExpectedVersion)
			close(entered)
			<-release
			return models.UpdateResponse{Version: 3}, nil
		}).Times(1)

	done := make(chan PushResult, 1)
	go func() {
		res, _ := m.SyncNow(ctx, "wf-6")
		done <- res
	}()

	<-entered
	assert.True(t, m.InFlight("wf-6"))
	assert.Equal(t, StatusSyncing, m.Status())

	_, err := m.RecordEdit(ctx, "wf-6", models.DocumentEdit{Name: strPtr("later")})
	require.NoError(t, err)
	close(release)

	res := <-done
	assert.Equal(t, OutcomeSynced, res.Outcome)

	snap := getSnapshot(t, st, "wf-6")
	assert.Equal(t, int64(3), *snap.ServerVersion)
	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, models.SyncStatusPending, snap.SyncStatus)
}

func TestSyncManager_ResolutionSupersedesInFlightPush(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-7", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusConflict})

	entered, release := make(chan struct{}), make(chan struct{})
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-7", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			assert.True(t, req.ForceOverwrite)
			close(entered)
			<-release
			return models.UpdateResponse{Version: 2}, nil
		}).Times(1)
	remote.EXPECT().GetDocument(gomock.Any(), "wf-7").
		Return(models.RemoteDocument{ID: "wf-7", Name: "server", Version: 8}, nil).Times(1)

	pushDone := make(chan PushResult, 1)
	go func() {
		res, _ := m.ResolveWithLocal(ctx, "wf-7")
		pushDone <- res
	}()
	<-entered

	resolveDone := make(chan PushResult, 1)
	go func() {
		res, _ := m.ResolveWithServer(ctx, "wf-7")
		resolveDone <- res
	}()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.docs["wf-7"].generation > 1
	}, waitFor, tick)
	close(release)

	assert.Equal(t, OutcomeSuperseded, (<-pushDone).Outcome)
	assert.Equal(t, OutcomeSynced, (<-resolveDone).Outcome)

	snap := getSnapshot(t, st, "wf-7")
	assert.Equal(t, "server", snap.Name)
	assert.Equal(t, int64(8), snap.Version)
	assert.Equal(t, int64(8), *snap.ServerVersion)
}

func TestSyncManager_ResolveWithServer_NoConflictKeepsEdits(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-3", Name: "unsaved", Version: 4, ServerVersion: models.Int64Ptr(3), SyncStatus: models.SyncStatusPending})
	require.NoError(t, st.AddPendingChange(ctx, models.PendingChange{ID: "c1", DocumentID: "wf-3", Version: 4, Timestamp: time.Now()}))

	res, err := m.ResolveWithServer(ctx, "wf-3")

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.True(t, res.OK())

	snap := getSnapshot(t, st, "wf-3")
	assert.Equal(t, "unsaved", snap.Name)
	assert.Equal(t, int64(4), snap.Version)
	assert.Equal(t, models.SyncStatusPending, snap.SyncStatus)

	changes, err := st.ListPendingChanges(ctx, "wf-3")
	require.NoError(t, err)
	assert.Len(t, changes, 1)

	_, err = m.ResolveWithServer(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyDocumentID)
}

// ── Reconcile ────────────────────────────────────────────────────────────────

func TestSyncManager_Reconcile(t *testing.T) {
	server := models.RemoteDocument{ID: "wf-8", Name: "server", Version: 6}

	tests := []struct {
		name      string
		local     *models.DocumentSnapshot
		remote    models.RemoteDocument
		remoteErr error
		want      func(t *testing.T, snap models.DocumentSnapshot)
	}{
		{
			name:   "unknown locally stores server copy",
			remote: server,
			want: func(t *testing.T, snap models.DocumentSnapshot) {
				assert.Equal(t, int64(6), snap.Version)
				assert.Equal(t, models.SyncStatusSynced, snap.SyncStatus)
			},
		},
		{
			name:      "unknown everywhere seeds a draft",
			remoteErr: adapter.ErrNotFound,
			want: func(t *testing.T, snap models.DocumentSnapshot) {
				assert.Equal(t, int64(0), snap.Version)
				assert.Nil(t, snap.ServerVersion)
				assert.Equal(t, models.SyncStatusPending, snap.SyncStatus)
			},
		},
		{
			name:   "stale synced copy is replaced",
			local:  &models.DocumentSnapshot{ID: "wf-8", Name: "old", Version: 4, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusSynced},
			remote: server,
			want: func(t *testing.T, snap models.DocumentSnapshot) {
				assert.Equal(t, "server", snap.Name)
				assert.Equal(t, int64(6), *snap.ServerVersion)
			},
		},
		{
			name:   "open conflict resets to server",
			local:  &models.DocumentSnapshot{ID: "wf-8", Name: "mine", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusConflict},
			remote: server,
			want: func(t *testing.T, snap models.DocumentSnapshot) {
				assert.Equal(t, "server", snap.Name)
				assert.Equal(t, models.SyncStatusSynced, snap.SyncStatus)
			},
		},
		{
			name:      "unreachable server keeps local copy",
			local:     &models.DocumentSnapshot{ID: "wf-8", Name: "mine", Version: 4, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusSynced},
			remoteErr: fmt.Errorf("%w: timeout", adapter.ErrTransient),
			want: func(t *testing.T, snap models.DocumentSnapshot) {
				assert.Equal(t, "mine", snap.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			remote := mock.NewMockServerAdapter(ctrl)
			m, st := newTestManager(t, remote, connectivity.NewManual(true))
			if tt.local != nil {
				putSnapshot(t, st, *tt.local)
			}
			remote.EXPECT().GetDocument(gomock.Any(), "wf-8").Return(tt.remote, tt.remoteErr).Times(1)

			snap, err := m.Reconcile(context.Background(), "wf-8")

			require.NoError(t, err)
			tt.want(t, snap)
			assert.Equal(t, snap, getSnapshot(t, st, "wf-8"))
		})
	}
}

func TestSyncManager_Reconcile_PendingIsKeptAndPushed(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-9", Name: "mine", Version: 5, ServerVersion: models.Int64Ptr(4), SyncStatus: models.SyncStatusPending})

	remote.EXPECT().GetDocument(gomock.Any(), "wf-9").Return(models.RemoteDocument{ID: "wf-9", Version: 4}, nil).Times(1)
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-9", gomock.Any()).Return(models.UpdateResponse{Version: 5}, nil).Times(1)

	snap, err := m.Reconcile(context.Background(), "wf-9")

	require.NoError(t, err)
	assert.Equal(t, "mine", snap.Name)
	require.Eventually(t, statusIs(st, "wf-9", models.SyncStatusSynced), waitFor, tick)
}

func TestSyncManager_Reconcile_WaitsForInFlightPush(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mock.NewMockServerAdapter(ctrl)
	m, st := newTestManager(t, remote, connectivity.NewManual(true))
	ctx := context.Background()
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-4", Name: "mine", Version: 4, ServerVersion: models.Int64Ptr(3), SyncStatus: models.SyncStatusPending})

	entered, release := make(chan struct{}), make(chan struct{})
	remote.EXPECT().UpdateDocument(gomock.Any(), "wf-4", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, req models.UpdateRequest) (models.UpdateResponse, error) {
			assert.Equal(t, int64(3), req.ExpectedVersion)
			close(entered)
			<-release
			return models.UpdateResponse{Version: 4}, nil
		}).Times(1)
	remote.EXPECT().GetDocument(gomock.Any(), "wf-4").
		Return(models.RemoteDocument{ID: "wf-4", Name: "mine", Version: 4}, nil).Times(1)

	pushDone := make(chan PushResult, 1)
	go func() {
		res, _ := m.SyncNow(ctx, "wf-4")
		pushDone <- res
	}()
	<-entered

	type reconciled struct {
		snap models.DocumentSnapshot
		err  error
	}
	reconcileDone := make(chan reconciled, 1)
	go func() {
		snap, err := m.Reconcile(ctx, "wf-4")
		reconcileDone <- reconciled{snap: snap, err: err}
	}()

	assert.Never(t, func() bool { return len(reconcileDone) > 0 }, 100*time.Millisecond, tick)
	close(release)

	assert.Equal(t, OutcomeSynced, (<-pushDone).Outcome)
	got := <-reconcileDone
	require.NoError(t, got.err)
	assert.Equal(t, int64(4), got.snap.Version)
	assert.Equal(t, int64(4), *got.snap.ServerVersion)
	assert.Equal(t, models.SyncStatusSynced, got.snap.SyncStatus)

	m.mu.Lock()
	assert.Zero(t, m.docs["wf-4"].generation)
	m.mu.Unlock()
}

func TestSyncManager_Reconcile_Offline(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(false))
	putSnapshot(t, st, models.DocumentSnapshot{ID: "wf-1", Name: "cached", Version: 2, ServerVersion: models.Int64Ptr(2), SyncStatus: models.SyncStatusSynced})

	snap, err := m.Reconcile(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "cached", snap.Name)

	draft, err := m.Reconcile(context.Background(), "wf-unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), draft.Version)
}

// ── Storage degradation and lifecycle ────────────────────────────────────────

func TestSyncManager_DegradedStorageIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	degrading := store.NewDegradingStore(nil, logger.Nop())
	m := NewSyncManager(degrading, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true), testSyncConfig(), &seqIDs{}, logger.Nop())
	t.Cleanup(func() { _ = m.Close() })

	var events []StatusChangeEvent
	m.Events().StatusChange.Subscribe(func(e StatusChangeEvent) { events = append(events, e) })

	require.NoError(t, m.Start(context.Background()))

	assert.True(t, m.Degraded())
	require.NotEmpty(t, events)
	assert.True(t, events[len(events)-1].StorageDegraded)

	snap, err := m.RecordEdit(context.Background(), "wf-1", models.DocumentEdit{Name: strPtr("kept in memory")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
}

func TestSyncManager_ClosedRejectsWork(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, _ := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.RecordEdit(context.Background(), "wf-1", models.DocumentEdit{})
	assert.ErrorIs(t, err, ErrManagerClosed)
	_, err = m.SyncNow(context.Background(), "wf-1")
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.ErrorIs(t, m.Start(context.Background()), ErrManagerClosed)
}

func TestSyncManager_Evict(t *testing.T) {
	ctrl := gomock.NewController(t)
	m, st := newTestManager(t, mock.NewMockServerAdapter(ctrl), connectivity.NewManual(true))
	old := time.Now().Add(-48 * time.Hour)
	putSnapshot(t, st, models.DocumentSnapshot{ID: "old-synced", Version: 1, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusSynced, LastModified: old})
	putSnapshot(t, st, models.DocumentSnapshot{ID: "old-pending", Version: 2, ServerVersion: models.Int64Ptr(1), SyncStatus: models.SyncStatusPending, LastModified: old})

	n, err := m.Evict(context.Background(), 24*time.Hour, true)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, found, _ := st.Get(context.Background(), "old-pending")
	assert.True(t, found)
}

func TestPushOutcome_String(t *testing.T) {
	assert.Equal(t, "synced", OutcomeSynced.String())
	assert.Equal(t, "superseded", OutcomeSuperseded.String())
	assert.Equal(t, "unknown", PushOutcome(0).String())
}
