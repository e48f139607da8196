// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/models"
)

// push sends the stored snapshot to the remote store with its server version
// as the expected version. The caller must hold the in-flight slot of ds.
func (m *SyncManager) push(ctx context.Context, id string, ds *docState, force bool) (PushResult, error) {
	defer m.release(id, ds)
	result := PushResult{DocumentID: id}

	m.mu.Lock()
	generation := ds.generation
	m.mu.Unlock()

	snap, found, err := m.store.Get(ctx, id)
	if err != nil {
		return result, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if !found {
		return result, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	result.Version = snap.Version

	switch {
	case isDraft(snap):
		result.Outcome = OutcomeNoop
		return result, nil
	case snap.SyncStatus == models.SyncStatusSynced && !force:
		result.Outcome = OutcomeNoop
		return result, nil
	case snap.SyncStatus == models.SyncStatusConflict && !force:
		info, ok := m.Conflict(id)
		if !ok {
			info = models.ConflictInfo{DocumentID: id, LocalVersion: snap.Version, ServerVersion: snap.BaseVersion()}
		}
		result.Outcome, result.Err = OutcomeConflict, &ConflictError{Info: info}
		return result, nil
	}

	if !m.monitor.Online() {
		if _, err = m.queue(ctx, snap, false); err != nil {
			return result, err
		}
		result.Outcome, result.Err = OutcomeOffline, ErrOffline
		m.publishStatus(nil)
		return result, nil
	}

	req := models.UpdateRequest{
		Name:            snap.Name,
		Description:     snap.Description,
		Content:         snap.Content,
		ExpectedVersion: snap.BaseVersion(),
		ForceOverwrite:  force,
	}

	m.mu.Lock()
	m.pushing++
	m.mu.Unlock()
	m.publishStatus(nil)

	resp, err := m.remote.UpdateDocument(ctx, id, req)

	m.mu.Lock()
	m.pushing--
	superseded := ds.generation != generation
	m.mu.Unlock()
	defer m.publishStatus(nil)

	if superseded {
		m.logger.Info().Str("func", "SyncManager.push").Str("document_id", id).Int64("version", snap.Version).Msg("discarding result of superseded push")
		result.Outcome = OutcomeSuperseded
		return result, nil
	}

	// The network result must be recorded even if the caller gave up.
	lctx := context.WithoutCancel(ctx)

	var conflictErr *adapter.ConflictError
	var validationErr *adapter.ValidationError
	switch {
	case err == nil:
		return m.confirm(lctx, ds, snap, resp.Version)
	case errors.As(err, &conflictErr):
		return m.markConflict(lctx, ds, snap, conflictErr.Server)
	case errors.As(err, &validationErr):
		return m.reject(id, ds, &ValidationError{Message: validationErr.Message, Fields: validationErr.Fields})
	case errors.Is(err, adapter.ErrNotFound):
		return m.reject(id, ds, &ValidationError{Message: "document no longer exists on the remote store"})
	default:
		return m.fail(lctx, snap, err)
	}
}

// confirm records a successful push. Edits made while the push was in flight
// keep their distance to the pushed version so they stay pending.
func (m *SyncManager) confirm(ctx context.Context, ds *docState, pushed models.DocumentSnapshot, version int64) (PushResult, error) {
	id := pushed.ID
	result := PushResult{DocumentID: id, Outcome: OutcomeSynced, Version: version}

	ds.mu.Lock()
	cur, found, err := m.store.Get(ctx, id)
	if err == nil {
		if !found {
			cur = pushed
		}
		cur.ServerVersion = models.Int64Ptr(version)
		cur.Version = version + (cur.Version - pushed.Version)
		cur.SyncStatus = models.SyncStatusPending
		if cur.IsSynced() {
			cur.SyncStatus = models.SyncStatusSynced
		}
		err = m.store.Put(ctx, cur)
	}
	if err == nil {
		err = m.settleChanges(ctx, id, pushed.Version, cur.IsSynced())
	}
	ds.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("record push of %s: %w", id, err)
	}

	m.mu.Lock()
	delete(m.conflicts, id)
	delete(m.failures, id)
	ds.rejected = false
	m.mu.Unlock()

	m.logger.Info().Str("func", "SyncManager.confirm").Str("document_id", id).Int64("version", version).Msg("document synced")
	m.events.SyncComplete.Publish(SyncCompleteEvent{DocumentID: id, Version: version})
	return result, nil
}

// settleChanges drops the pending changes covered by a confirmed push.
func (m *SyncManager) settleChanges(ctx context.Context, id string, pushedVersion int64, synced bool) error {
	if synced {
		return m.store.ClearPendingChanges(ctx, id)
	}

	changes, err := m.store.ListPendingChanges(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range changes {
		if c.Version > pushedVersion {
			continue
		}
		if err = m.store.RemovePendingChange(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *SyncManager) markConflict(ctx context.Context, ds *docState, pushed models.DocumentSnapshot, server models.RemoteDocument) (PushResult, error) {
	id := pushed.ID
	info := models.ConflictInfo{
		DocumentID:    id,
		LocalVersion:  pushed.Version,
		ServerVersion: server.Version,
		LocalData:     models.EditOf(pushed),
		ServerData:    server,
		Timestamp:     m.now(),
	}

	ds.mu.Lock()
	cur, found, err := m.store.Get(ctx, id)
	if err == nil && found {
		cur.SyncStatus = models.SyncStatusConflict
		err = m.store.Put(ctx, cur)
	}
	ds.mu.Unlock()
	if err != nil {
		return PushResult{DocumentID: id}, fmt.Errorf("record conflict of %s: %w", id, err)
	}

	m.mu.Lock()
	m.conflicts[id] = info
	delete(m.failures, id)
	m.mu.Unlock()

	m.logger.Warn().Str("func", "SyncManager.markConflict").Str("document_id", id).
		Int64("local_version", info.LocalVersion).Int64("server_version", info.ServerVersion).Msg("version conflict")
	m.events.Conflict.Publish(info)
	return PushResult{DocumentID: id, Outcome: OutcomeConflict, Version: server.Version, Err: &ConflictError{Info: info}}, nil
}

func (m *SyncManager) reject(id string, ds *docState, verr *ValidationError) (PushResult, error) {
	m.mu.Lock()
	ds.rejected = true
	m.failures[id] = verr
	m.mu.Unlock()

	m.logger.Warn().Err(verr).Str("func", "SyncManager.reject").Str("document_id", id).Msg("payload rejected")
	m.events.Error.Publish(ErrorEvent{DocumentID: id, Err: verr})
	return PushResult{DocumentID: id, Outcome: OutcomeRejected, Err: verr}, nil
}

// fail queues the edit after a push that got no verdict from the store.
func (m *SyncManager) fail(ctx context.Context, snap models.DocumentSnapshot, cause error) (PushResult, error) {
	id := snap.ID
	change, err := m.queue(ctx, snap, true)
	if err != nil {
		return PushResult{DocumentID: id}, err
	}

	terr := &TransientError{
		Cause:      cause,
		RetryCount: change.RetryCount,
		Exhausted:  change.RetryCount >= m.maxRetries,
	}

	m.mu.Lock()
	m.failures[id] = terr
	m.mu.Unlock()

	m.logger.Error().Err(cause).Str("func", "SyncManager.fail").Str("document_id", id).
		Int("retry_count", change.RetryCount).Bool("exhausted", terr.Exhausted).Msg("push failed")
	m.events.Error.Publish(ErrorEvent{DocumentID: id, Err: terr})
	return PushResult{DocumentID: id, Outcome: OutcomeTransient, Version: snap.Version, Err: terr}, nil
}

// queue records snap as the pending change of its document. A document keeps
// one change: later saves replace its payload and, when failed is set, count
// as a retry of it.
func (m *SyncManager) queue(ctx context.Context, snap models.DocumentSnapshot, failed bool) (models.PendingChange, error) {
	changes, err := m.store.ListPendingChanges(ctx, snap.ID)
	if err != nil {
		return models.PendingChange{}, fmt.Errorf("list pending changes of %s: %w", snap.ID, err)
	}

	change := models.PendingChange{
		ID:         m.ids.Generate(),
		DocumentID: snap.ID,
		Type:       models.ChangeUpdate,
		Data:       models.EditOf(snap),
		Version:    snap.Version,
		Timestamp:  m.now(),
	}
	if snap.ServerVersion == nil {
		change.Type = models.ChangeCreate
	}
	if n := len(changes); n > 0 {
		last := changes[n-1]
		change.ID = last.ID
		change.RetryCount = last.RetryCount
		if failed {
			change.RetryCount++
		}
	}

	if err = m.store.AddPendingChange(ctx, change); err != nil {
		return models.PendingChange{}, fmt.Errorf("queue change of %s: %w", snap.ID, err)
	}
	return change, nil
}

// ResolveWithLocal re-pushes the local payload bypassing the version check.
// Without an unresolved conflict it is a no-op.
func (m *SyncManager) ResolveWithLocal(ctx context.Context, id string) (PushResult, error) {
	if res, open, err := m.openConflict(ctx, id); err != nil || !open {
		return res, err
	}

	ds, err := m.prepare(id, true)
	if err != nil {
		return PushResult{DocumentID: id}, err
	}
	if err = m.acquire(ctx, ds); err != nil {
		return PushResult{DocumentID: id}, err
	}

	m.logger.Info().Str("func", "SyncManager.ResolveWithLocal").Str("document_id", id).Msg("overwriting server copy")
	return m.push(ctx, id, ds, true)
}

// ResolveWithServer discards local edits and adopts the authoritative
// document, clearing the conflict and pending changes. Without an unresolved
// conflict it is a no-op and local edits are kept.
func (m *SyncManager) ResolveWithServer(ctx context.Context, id string) (PushResult, error) {
	if res, open, err := m.openConflict(ctx, id); err != nil || !open {
		return res, err
	}

	ds, err := m.prepare(id, true)
	if err != nil {
		return PushResult{DocumentID: id}, err
	}
	if err = m.acquire(ctx, ds); err != nil {
		return PushResult{DocumentID: id}, err
	}
	defer m.release(id, ds)

	if !m.monitor.Online() {
		return PushResult{DocumentID: id, Outcome: OutcomeOffline, Err: ErrOffline}, nil
	}

	remote, err := m.remote.GetDocument(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, adapter.ErrNotFound):
		return m.reject(id, ds, &ValidationError{Message: "document no longer exists on the remote store"})
	default:
		terr := &TransientError{Cause: err}
		m.events.Error.Publish(ErrorEvent{DocumentID: id, Err: terr})
		return PushResult{DocumentID: id, Outcome: OutcomeTransient, Err: terr}, nil
	}

	snap, err := m.adopt(context.WithoutCancel(ctx), ds, id, remote)
	if err != nil {
		return PushResult{DocumentID: id}, err
	}
	m.logger.Info().Str("func", "SyncManager.ResolveWithServer").Str("document_id", id).Int64("version", snap.Version).Msg("adopted server copy")
	return PushResult{DocumentID: id, Outcome: OutcomeSynced, Version: snap.Version}, nil
}

// openConflict reports whether id has a conflict to resolve, in memory or in
// the store. When it has none, res is the no-op result.
func (m *SyncManager) openConflict(ctx context.Context, id string) (res PushResult, open bool, err error) {
	if id == "" {
		return PushResult{}, false, ErrEmptyDocumentID
	}
	if _, ok := m.Conflict(id); ok {
		return PushResult{DocumentID: id}, true, nil
	}
	snap, found, err := m.store.Get(ctx, id)
	if err != nil {
		return PushResult{DocumentID: id}, false, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if found && snap.SyncStatus == models.SyncStatusConflict {
		return PushResult{DocumentID: id}, true, nil
	}
	return PushResult{DocumentID: id, Outcome: OutcomeNoop, Version: snap.Version}, false, nil
}

// adopt overwrites the local snapshot with the remote document.
func (m *SyncManager) adopt(ctx context.Context, ds *docState, id string, remote models.RemoteDocument) (models.DocumentSnapshot, error) {
	snap := models.DocumentSnapshot{
		ID:            id,
		Name:          remote.Name,
		Description:   remote.Description,
		Content:       remote.Content,
		Version:       remote.Version,
		ServerVersion: models.Int64Ptr(remote.Version),
		SyncStatus:    models.SyncStatusSynced,
		LastModified:  m.now(),
	}

	ds.mu.Lock()
	err := m.store.Put(ctx, snap)
	if err == nil {
		err = m.store.ClearPendingChanges(ctx, id)
	}
	ds.mu.Unlock()
	if err != nil {
		return models.DocumentSnapshot{}, fmt.Errorf("adopt server copy of %s: %w", id, err)
	}

	m.mu.Lock()
	delete(m.conflicts, id)
	delete(m.failures, id)
	ds.rejected = false
	m.mu.Unlock()

	m.publishStatus(nil)
	m.events.SyncComplete.Publish(SyncCompleteEvent{DocumentID: id, Version: remote.Version})
	return snap, nil
}

// Reconcile brings the local snapshot in line with the server before a
// document is edited:
//   - unknown locally: the server copy is stored;
//   - synced locally but behind: the server copy replaces it;
//   - in conflict: the server copy wins, the conflict is dropped;
//   - pending: local edits are kept and a push is scheduled;
//   - unknown to the server or unreachable: an empty draft is seeded.
//
// A push in flight is waited for, so its confirmed version is what gets
// compared with the server.
func (m *SyncManager) Reconcile(ctx context.Context, id string) (models.DocumentSnapshot, error) {
	ds, err := m.prepare(id, false)
	if err != nil {
		return models.DocumentSnapshot{}, err
	}
	if err = m.acquire(ctx, ds); err != nil {
		return models.DocumentSnapshot{}, err
	}

	snap, schedule, err := m.reconcile(ctx, ds, id)
	m.release(id, ds)
	if err != nil {
		return models.DocumentSnapshot{}, err
	}
	if schedule {
		m.ScheduleSync(id)
	}
	return snap, nil
}

func (m *SyncManager) reconcile(ctx context.Context, ds *docState, id string) (models.DocumentSnapshot, bool, error) {
	local, found, err := m.store.Get(ctx, id)
	if err != nil {
		return models.DocumentSnapshot{}, false, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	pending := found && local.SyncStatus == models.SyncStatusPending && !isDraft(local)

	if !m.monitor.Online() {
		if found {
			return local, false, nil
		}
		snap, err := m.seedDraft(ctx, id)
		return snap, false, err
	}

	remote, err := m.remote.GetDocument(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, adapter.ErrNotFound), errors.Is(err, adapter.ErrTransient):
		m.logger.Info().Err(err).Str("func", "SyncManager.reconcile").Str("document_id", id).Msg("server copy unavailable")
		if found {
			return local, pending, nil
		}
		snap, err := m.seedDraft(ctx, id)
		return snap, false, err
	default:
		return models.DocumentSnapshot{}, false, fmt.Errorf("fetch server copy of %s: %w", id, err)
	}

	switch {
	case !found, isDraft(local), local.SyncStatus == models.SyncStatusConflict,
		local.SyncStatus == models.SyncStatusSynced && local.Version != remote.Version:
		snap, err := m.adopt(ctx, ds, id, remote)
		return snap, false, err
	case pending:
		return local, true, nil
	}
	return local, false, nil
}

func (m *SyncManager) seedDraft(ctx context.Context, id string) (models.DocumentSnapshot, error) {
	snap := models.DocumentSnapshot{
		ID:           id,
		SyncStatus:   models.SyncStatusPending,
		LastModified: m.now(),
	}
	if err := m.store.Put(ctx, snap); err != nil {
		return models.DocumentSnapshot{}, fmt.Errorf("seed draft %s: %w", id, err)
	}
	return snap, nil
}
