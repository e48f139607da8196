// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/connectivity"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// PushOutcome discriminates the result of a push or resolution.
type PushOutcome int

const (
	OutcomeSynced PushOutcome = iota + 1
	OutcomeConflict
	OutcomeOffline
	OutcomeTransient
	OutcomeRejected
	OutcomeSuperseded
	OutcomeNoop
)

func (o PushOutcome) String() string {
	switch o {
	case OutcomeSynced:
		return "synced"
	case OutcomeConflict:
		return "conflict"
	case OutcomeOffline:
		return "offline"
	case OutcomeTransient:
		return "transient"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeNoop:
		return "noop"
	}
	return "unknown"
}

// PushResult is the outcome of an expected sync condition. Err is one of
// ErrOffline, *ConflictError, *TransientError or *ValidationError, or nil.
type PushResult struct {
	DocumentID string
	Outcome    PushOutcome
	Version    int64
	Err        error
}

// OK reports whether the document is known to match the remote store.
func (r PushResult) OK() bool {
	return r.Outcome == OutcomeSynced || r.Outcome == OutcomeNoop
}

// degradable is implemented by stores that can fall back to memory.
type degradable interface {
	Degraded() bool
	OnDegrade(fn func(error))
}

type docState struct {
	// mu serializes read-modify-write of the stored snapshot.
	mu sync.Mutex

	timer    *time.Timer
	timerSeq uint64

	inFlight bool
	done     chan struct{}
	rerun    bool

	// generation is bumped by resolution actions; a push that finishes
	// under an older generation is discarded.
	generation uint64
	rejected   bool
}

// SyncManager is the only component talking to the remote store. It owns
// every local snapshot write, debounces pushes per document and keeps a
// single global status.
type SyncManager struct {
	store      store.DurableStore
	remote     adapter.ServerAdapter
	monitor    connectivity.Monitor
	ids        utils.IDGenerator
	debounce   time.Duration
	maxRetries int
	now        func() time.Time
	logger     *logger.Logger
	events     Events

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                sync.Mutex
	docs              map[string]*docState
	conflicts         map[string]models.ConflictInfo
	failures          map[string]error
	pushing           int
	degraded          bool
	published         GlobalStatus
	publishedDegraded bool
	started           bool
	closed            bool
	unsubscribe       func()
}

// NewSyncManager builds an idle manager. Call Start to follow connectivity
// and resume pending documents.
func NewSyncManager(st store.DurableStore, remote adapter.ServerAdapter, monitor connectivity.Monitor,
	cfg config.ClientSync, ids utils.IDGenerator, log *logger.Logger) *SyncManager {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if monitor == nil {
		monitor = connectivity.NewStatic()
	}
	if ids == nil {
		ids = utils.NewUUIDGenerator()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &SyncManager{
		store:      st,
		remote:     remote,
		monitor:    monitor,
		ids:        ids,
		debounce:   cfg.DebounceDelay,
		maxRetries: cfg.MaxRetries,
		now:        time.Now,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		docs:       make(map[string]*docState),
		conflicts:  make(map[string]models.ConflictInfo),
		failures:   make(map[string]error),
	}
	m.published = m.statusLocked()
	return m
}

// Start subscribes to connectivity and storage degradation and, when online,
// flushes documents left pending by a previous run.
func (m *SyncManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	unsubscribe := m.monitor.Subscribe(m.onConnectivity)
	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	if d, ok := m.store.(degradable); ok {
		d.OnDegrade(m.onDegrade)
	}

	if _, err := m.RestoreConflicts(ctx); err != nil {
		return err
	}

	pending, err := m.store.ListByStatus(ctx, models.SyncStatusPending)
	if err != nil {
		return fmt.Errorf("list pending documents: %w", err)
	}
	m.logger.Info().Str("func", "SyncManager.Start").Int("pending", len(pending)).Bool("online", m.monitor.Online()).Msg("sync manager started")

	if len(pending) > 0 && m.monitor.Online() {
		m.goFlush()
	}
	return nil
}

// RestoreConflicts loads conflicts left unresolved by a previous run so the
// global status reports them. The server side of a restored conflict is only
// known by its version; reopening the document fetches it.
func (m *SyncManager) RestoreConflicts(ctx context.Context) (int, error) {
	snaps, err := m.store.ListByStatus(ctx, models.SyncStatusConflict)
	if err != nil {
		return 0, fmt.Errorf("list conflicting documents: %w", err)
	}

	restored := 0
	m.mu.Lock()
	for _, snap := range snaps {
		if _, ok := m.conflicts[snap.ID]; ok {
			continue
		}
		m.conflicts[snap.ID] = models.ConflictInfo{
			DocumentID:    snap.ID,
			LocalVersion:  snap.Version,
			ServerVersion: snap.BaseVersion(),
			LocalData:     models.EditOf(snap),
			Timestamp:     snap.LastModified,
		}
		restored++
	}
	m.mu.Unlock()

	if restored > 0 {
		m.logger.Info().Str("func", "SyncManager.RestoreConflicts").Int("conflicts", restored).Msg("restored unresolved conflicts")
		m.publishStatus(nil)
	}
	return restored, nil
}

// Close cancels debounce timers and waits for background pushes. It does
// not close the store.
func (m *SyncManager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, ds := range m.docs {
		cancelTimerLocked(ds)
	}
	unsubscribe := m.unsubscribe
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.cancel()
	m.wg.Wait()
	return nil
}

// Events returns the topics the manager publishes on.
func (m *SyncManager) Events() *Events {
	return &m.events
}

// Status returns the current global status.
func (m *SyncManager) Status() GlobalStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Degraded reports whether the local store fell back to memory-only mode.
func (m *SyncManager) Degraded() bool {
	if d, ok := m.store.(degradable); ok && d.Degraded() {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Online reports the connectivity state the manager acts on.
func (m *SyncManager) Online() bool {
	return m.monitor.Online()
}

// Conflict returns the unresolved conflict of a document, if any.
func (m *SyncManager) Conflict(id string) (models.ConflictInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.conflicts[id]
	return info, ok
}

// InFlight reports whether a push of the document is outstanding.
func (m *SyncManager) InFlight(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.docs[id]
	return ok && ds.inFlight
}

// LastError returns the error of the last failed push of a document.
func (m *SyncManager) LastError(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[id]
}

// Snapshot returns the stored snapshot of a document.
func (m *SyncManager) Snapshot(ctx context.Context, id string) (models.DocumentSnapshot, bool, error) {
	return m.store.Get(ctx, id)
}

// Snapshots lists stored snapshots with the given status.
func (m *SyncManager) Snapshots(ctx context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error) {
	return m.store.ListByStatus(ctx, status)
}

// PendingChanges lists the unconfirmed changes of a document.
func (m *SyncManager) PendingChanges(ctx context.Context, id string) ([]models.PendingChange, error) {
	return m.store.ListPendingChanges(ctx, id)
}

// Evict removes snapshots untouched for longer than age. Pending and
// conflict snapshots are never removed.
func (m *SyncManager) Evict(ctx context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	n, err := m.store.EvictOlderThan(ctx, age, onlyIfSynced)
	if err != nil {
		return 0, fmt.Errorf("evict snapshots: %w", err)
	}
	if n > 0 {
		m.logger.Info().Str("func", "SyncManager.Evict").Int("evicted", n).Dur("age", age).Msg("evicted local snapshots")
	}
	return n, nil
}

// RecordEdit applies edit to the local snapshot and persists it before
// anything is sent over the network. The version grows by exactly one.
// A document in conflict stays in conflict until resolved.
func (m *SyncManager) RecordEdit(ctx context.Context, id string, edit models.DocumentEdit) (models.DocumentSnapshot, error) {
	ds, err := m.doc(id)
	if err != nil {
		return models.DocumentSnapshot{}, err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	snap, found, err := m.store.Get(ctx, id)
	if err != nil {
		return models.DocumentSnapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	if !found {
		snap = models.DocumentSnapshot{ID: id}
	}

	edit.Apply(&snap)
	snap.Version++
	snap.LastModified = m.now()
	if snap.SyncStatus != models.SyncStatusConflict {
		snap.SyncStatus = models.SyncStatusPending
	}

	if err = m.store.Put(ctx, snap); err != nil {
		return models.DocumentSnapshot{}, fmt.Errorf("persist snapshot %s: %w", id, err)
	}

	m.mu.Lock()
	ds.rejected = false
	m.mu.Unlock()

	m.logger.Debug().Str("func", "SyncManager.RecordEdit").Str("document_id", id).Int64("version", snap.Version).Msg("local edit persisted")
	return snap, nil
}

// ScheduleSync arms the debounce timer of a document, restarting it when it
// is already running.
func (m *SyncManager) ScheduleSync(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || id == "" {
		return
	}
	m.armLocked(id, m.docLocked(id))
}

// SyncNow cancels the debounce timer and pushes immediately, waiting for an
// in-flight push of the same document first.
func (m *SyncManager) SyncNow(ctx context.Context, id string) (PushResult, error) {
	ds, err := m.prepare(id, false)
	if err != nil {
		return PushResult{DocumentID: id}, err
	}
	if err = m.acquire(ctx, ds); err != nil {
		return PushResult{DocumentID: id}, err
	}
	return m.push(ctx, id, ds, false)
}

// Retry re-attempts the last failed push of a document, ignoring debounce.
// A payload previously rejected by the store is sent again.
func (m *SyncManager) Retry(ctx context.Context, id string) (PushResult, error) {
	m.logger.Info().Str("func", "SyncManager.Retry").Str("document_id", id).Msg("retry requested")
	return m.SyncNow(ctx, id)
}

// FlushPending pushes every pending document sequentially. Documents whose
// payload was rejected are skipped until edited again.
func (m *SyncManager) FlushPending(ctx context.Context) ([]PushResult, error) {
	snaps, err := m.store.ListByStatus(ctx, models.SyncStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}

	results := make([]PushResult, 0, len(snaps))
	var errs []error
	for _, snap := range snaps {
		if err = ctx.Err(); err != nil {
			return results, err
		}
		if !m.monitor.Online() {
			break
		}

		m.mu.Lock()
		skip := m.docLocked(snap.ID).rejected
		m.mu.Unlock()
		if skip || isDraft(snap) {
			continue
		}

		res, err := m.SyncNow(ctx, snap.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", snap.ID, err))
			continue
		}
		results = append(results, res)
	}

	m.logger.Info().Str("func", "SyncManager.FlushPending").Int("documents", len(results)).Msg("pending documents flushed")
	return results, errors.Join(errs...)
}

func (m *SyncManager) onConnectivity(online bool) {
	m.logger.Info().Str("func", "SyncManager.onConnectivity").Bool("online", online).Msg("connectivity changed")
	m.publishStatus(&online)
	if online {
		m.goFlush()
	}
}

func (m *SyncManager) onDegrade(err error) {
	m.mu.Lock()
	m.degraded = true
	m.mu.Unlock()
	m.logger.Warn().Err(err).Str("func", "SyncManager.onDegrade").Msg("edits are kept in memory only")
	m.publishStatus(nil)
}

func (m *SyncManager) goFlush() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		if _, err := m.FlushPending(m.ctx); err != nil {
			m.logger.Error().Err(err).Str("func", "SyncManager.goFlush").Msg("flush of pending documents failed")
		}
	}()
}

func (m *SyncManager) statusLocked() GlobalStatus {
	switch {
	case !m.monitor.Online():
		return StatusOffline
	case m.pushing > 0:
		return StatusSyncing
	case len(m.conflicts) > 0:
		return StatusConflict
	case len(m.failures) > 0:
		return StatusError
	}
	return StatusIdle
}

// publishStatus emits a StatusChange when the derived status or storage mode
// changed. A non-nil online always emits.
func (m *SyncManager) publishStatus(online *bool) {
	m.mu.Lock()
	status := m.statusLocked()
	degraded := m.degraded
	if online == nil && status == m.published && degraded == m.publishedDegraded {
		m.mu.Unlock()
		return
	}
	m.published, m.publishedDegraded = status, degraded
	m.mu.Unlock()

	m.events.StatusChange.Publish(StatusChangeEvent{Online: online, Status: status, StorageDegraded: degraded})
}

func (m *SyncManager) doc(id string) (*docState, error) {
	if id == "" {
		return nil, ErrEmptyDocumentID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	return m.docLocked(id), nil
}

func (m *SyncManager) docLocked(id string) *docState {
	ds, ok := m.docs[id]
	if !ok {
		ds = &docState{}
		m.docs[id] = ds
	}
	return ds
}

// prepare cancels the debounce timer and, for resolution actions, marks any
// in-flight push as superseded.
func (m *SyncManager) prepare(id string, supersede bool) (*docState, error) {
	if id == "" {
		return nil, ErrEmptyDocumentID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	ds := m.docLocked(id)
	cancelTimerLocked(ds)
	ds.rerun = false
	ds.rejected = false
	if supersede {
		ds.generation++
	}
	return ds, nil
}

func (m *SyncManager) armLocked(id string, ds *docState) {
	if ds.timer != nil {
		ds.timer.Stop()
	}
	ds.timerSeq++
	seq := ds.timerSeq
	ds.timer = time.AfterFunc(m.debounce, func() { m.onDebounce(id, seq) })
}

func cancelTimerLocked(ds *docState) {
	if ds.timer != nil {
		ds.timer.Stop()
		ds.timer = nil
	}
	ds.timerSeq++
}

func (m *SyncManager) onDebounce(id string, seq uint64) {
	m.mu.Lock()
	ds, ok := m.docs[id]
	if m.closed || !ok || ds.timerSeq != seq {
		m.mu.Unlock()
		return
	}
	ds.timer = nil
	if ds.inFlight {
		ds.rerun = true
		m.mu.Unlock()
		return
	}
	claimLocked(ds)
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	res, err := m.push(m.ctx, id, ds, false)
	if err != nil {
		m.logger.Error().Err(err).Str("func", "SyncManager.onDebounce").Str("document_id", id).Msg("debounced push failed")
		return
	}
	m.logger.Debug().Str("func", "SyncManager.onDebounce").Str("document_id", id).Stringer("outcome", res.Outcome).Msg("debounced push finished")
}

// acquire waits until no push of the document is in flight and claims the
// slot.
func (m *SyncManager) acquire(ctx context.Context, ds *docState) error {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return ErrManagerClosed
		}
		if !ds.inFlight {
			claimLocked(ds)
			m.mu.Unlock()
			return nil
		}
		done := ds.done
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func claimLocked(ds *docState) {
	ds.inFlight = true
	ds.done = make(chan struct{})
}

// release frees the in-flight slot. Edits that arrived mid-push are picked up
// by a fresh debounce cycle.
func (m *SyncManager) release(id string, ds *docState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds.inFlight = false
	close(ds.done)
	if ds.rerun && !m.closed {
		ds.rerun = false
		m.armLocked(id, ds)
	}
}

// isDraft reports whether the snapshot is an untouched placeholder seeded
// for a document the server does not know.
func isDraft(snap models.DocumentSnapshot) bool {
	return snap.Version == 0 && snap.ServerVersion == nil
}
