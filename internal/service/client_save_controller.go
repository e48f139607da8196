// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// SaveState is what an editor shows for the open document.
type SaveState string

const (
	SaveStateSaved    SaveState = "saved"
	SaveStateSaving   SaveState = "saving"
	SaveStateUnsaved  SaveState = "unsaved"
	SaveStateOffline  SaveState = "offline"
	SaveStateConflict SaveState = "conflict"
	SaveStateError    SaveState = "error"
)

// SaveOptions tune an explicit save.
type SaveOptions struct {
	// Silent suppresses the notice published for the result.
	Silent bool
	// Force cancels the debounce timer and pushes immediately. Without it
	// the save is left to the debounce cycle.
	Force bool
}

// Notice reports a save-related change of one document to the editor.
type Notice struct {
	DocumentID string
	State      SaveState
	Err        error
}

// SaveController is the per-editing-session facade over a [SyncManager] for
// one document.
type SaveController struct {
	manager *SyncManager
	id      string
	logger  *logger.Logger
	notices Topic[Notice]

	mu     sync.Mutex
	opened bool
	dirty  bool
	saving bool
	unsubs []func()
}

// NewSaveController returns a controller for document id. Call Open before
// editing.
func NewSaveController(manager *SyncManager, id string, log *logger.Logger) *SaveController {
	return &SaveController{manager: manager, id: id, logger: log}
}

// DocumentID returns the id of the controlled document.
func (c *SaveController) DocumentID() string {
	return c.id
}

// Notices returns the topic save results and sync events of this document
// are published on.
func (c *SaveController) Notices() *Topic[Notice] {
	return &c.notices
}

// Open reconciles the local snapshot with the server before edits are
// accepted, so the next push carries an up to date expected version.
func (c *SaveController) Open(ctx context.Context) (models.DocumentSnapshot, error) {
	snap, err := c.manager.Reconcile(ctx, c.id)
	if err != nil {
		return models.DocumentSnapshot{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		c.opened = true
		c.dirty = snap.SyncStatus == models.SyncStatusPending && !isDraft(snap)
		events := c.manager.Events()
		c.unsubs = append(c.unsubs,
			events.SyncComplete.Subscribe(c.onSyncComplete),
			events.Conflict.Subscribe(c.onConflict),
			events.Error.Subscribe(c.onError),
		)
	}
	return snap, nil
}

// MarkDirty persists edit locally, then arms the debounce timer for the
// network push.
func (c *SaveController) MarkDirty(ctx context.Context, edit models.DocumentEdit) error {
	if !c.isOpened() {
		return ErrNotOpened
	}
	if _, err := c.manager.RecordEdit(ctx, c.id, edit); err != nil {
		return err
	}

	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()

	c.manager.ScheduleSync(c.id)
	return nil
}

// Watch applies edits from the dirty signal until it is closed or ctx is
// done. A failed edit is reported as a notice and does not stop the loop.
func (c *SaveController) Watch(ctx context.Context, edits <-chan models.DocumentEdit) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case edit, ok := <-edits:
			if !ok {
				return nil
			}
			err := c.MarkDirty(ctx, edit)
			switch {
			case err == nil:
			case errors.Is(err, ErrManagerClosed), errors.Is(err, ErrNotOpened):
				return err
			default:
				c.logger.Error().Err(err).Str("func", "SaveController.Watch").Str("document_id", c.id).Msg("failed to record edit")
				c.notices.Publish(Notice{DocumentID: c.id, State: SaveStateError, Err: err})
			}
		}
	}
}

// Save performs an explicit save and reports success. A forced save pushes
// now and succeeds only when the server confirmed the document; otherwise
// the push is left to the debounce cycle and success means it is persisted
// locally.
func (c *SaveController) Save(ctx context.Context, opts SaveOptions) bool {
	if !c.isOpened() {
		return false
	}

	if !opts.Force {
		snap, found, err := c.manager.Snapshot(ctx, c.id)
		if err != nil || !found {
			c.report(ctx, opts, err)
			return false
		}
		if snap.SyncStatus == models.SyncStatusPending {
			c.manager.ScheduleSync(c.id)
		}
		c.report(ctx, opts, nil)
		return snap.SyncStatus != models.SyncStatusConflict
	}

	c.setSaving(true)
	res, err := c.manager.SyncNow(ctx, c.id)
	c.setSaving(false)
	return c.finish(ctx, opts, res, err)
}

// Retry re-attempts the last failed push, ignoring debounce.
func (c *SaveController) Retry(ctx context.Context) bool {
	if !c.isOpened() {
		return false
	}
	c.setSaving(true)
	res, err := c.manager.Retry(ctx, c.id)
	c.setSaving(false)
	return c.finish(ctx, SaveOptions{}, res, err)
}

// ResolveConflict applies policy to the open conflict. Without a conflict
// the call succeeds and changes nothing.
func (c *SaveController) ResolveConflict(ctx context.Context, policy models.ResolutionPolicy) bool {
	if !c.isOpened() {
		return false
	}

	var (
		res PushResult
		err error
	)
	c.setSaving(true)
	switch policy {
	case models.ResolveLocal:
		res, err = c.manager.ResolveWithLocal(ctx, c.id)
	case models.ResolveServer:
		res, err = c.manager.ResolveWithServer(ctx, c.id)
	default:
		c.setSaving(false)
		c.logger.Warn().Str("func", "SaveController.ResolveConflict").Str("policy", string(policy)).Msg("unknown resolution policy")
		return false
	}
	c.setSaving(false)
	return c.finish(ctx, SaveOptions{}, res, err)
}

// State derives the save state of the document.
func (c *SaveController) State(ctx context.Context) SaveState {
	c.mu.Lock()
	dirty, saving := c.dirty, c.saving
	c.mu.Unlock()

	snap, found, err := c.manager.Snapshot(ctx, c.id)
	if err != nil {
		return SaveStateError
	}
	if _, ok := c.manager.Conflict(c.id); ok || (found && snap.SyncStatus == models.SyncStatusConflict) {
		return SaveStateConflict
	}

	pending := dirty || (found && snap.SyncStatus == models.SyncStatusPending && !isDraft(snap))
	switch {
	case saving || c.manager.InFlight(c.id):
		return SaveStateSaving
	case !c.manager.Online():
		return SaveStateOffline
	case c.manager.LastError(c.id) != nil:
		return SaveStateError
	case pending:
		return SaveStateUnsaved
	}
	return SaveStateSaved
}

// Close stops forwarding events. Pending edits stay queued in the store.
func (c *SaveController) Close() {
	c.mu.Lock()
	unsubs := c.unsubs
	c.unsubs = nil
	c.opened = false
	c.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

func (c *SaveController) finish(ctx context.Context, opts SaveOptions, res PushResult, err error) bool {
	if err != nil {
		c.logger.Error().Err(err).Str("func", "SaveController.finish").Str("document_id", c.id).Msg("save failed")
		c.report(ctx, opts, err)
		return false
	}
	c.report(ctx, opts, res.Err)
	return res.OK()
}

func (c *SaveController) report(ctx context.Context, opts SaveOptions, err error) {
	if opts.Silent {
		return
	}
	c.notices.Publish(Notice{DocumentID: c.id, State: c.State(ctx), Err: err})
}

func (c *SaveController) onSyncComplete(e SyncCompleteEvent) {
	if e.DocumentID != c.id {
		return
	}
	state := SaveStateUnsaved
	if snap, found, err := c.manager.Snapshot(context.Background(), c.id); err == nil && found && snap.IsSynced() {
		c.mu.Lock()
		c.dirty = false
		c.mu.Unlock()
		state = SaveStateSaved
	}
	c.notices.Publish(Notice{DocumentID: c.id, State: state})
}

func (c *SaveController) onConflict(info models.ConflictInfo) {
	if info.DocumentID != c.id {
		return
	}
	c.notices.Publish(Notice{DocumentID: c.id, State: SaveStateConflict, Err: &ConflictError{Info: info}})
}

func (c *SaveController) onError(e ErrorEvent) {
	if e.DocumentID != c.id {
		return
	}
	c.notices.Publish(Notice{DocumentID: c.id, State: SaveStateError, Err: e.Err})
}

func (c *SaveController) isOpened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

func (c *SaveController) setSaving(v bool) {
	c.mu.Lock()
	c.saving = v
	c.mu.Unlock()
}
