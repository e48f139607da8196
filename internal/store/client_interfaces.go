// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// DurableStore is the local durable store shared by every document open in a
// client runtime. It holds exactly one [models.DocumentSnapshot] per document
// id and the set of [models.PendingChange] values not yet confirmed by the
// remote store.
//
// Implementations must make Put atomic with respect to readers. Get reports a
// missing snapshot with found == false, never with an error.
type DurableStore interface {
	// Put inserts or replaces the snapshot with the same id.
	Put(ctx context.Context, snapshot models.DocumentSnapshot) error
	// Get returns the snapshot for id. found is false when none exists.
	Get(ctx context.Context, id string) (snapshot models.DocumentSnapshot, found bool, err error)
	// Delete removes the snapshot for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// ListByStatus returns all snapshots with the given status ordered by
	// last modification time.
	ListByStatus(ctx context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error)

	// AddPendingChange inserts the change or replaces the one with the same id.
	AddPendingChange(ctx context.Context, change models.PendingChange) error
	// ListPendingChanges returns the changes for documentID ordered by timestamp.
	ListPendingChanges(ctx context.Context, documentID string) ([]models.PendingChange, error)
	// RemovePendingChange removes a single change by id.
	RemovePendingChange(ctx context.Context, id string) error
	// ClearPendingChanges removes every change recorded for documentID.
	ClearPendingChanges(ctx context.Context, documentID string) error

	// EvictOlderThan removes snapshots not modified within age and returns
	// how many were removed. Pending and conflict snapshots are never
	// evicted. With onlyIfSynced false, pending changes older than age whose
	// document no longer exists are purged as well.
	EvictOlderThan(ctx context.Context, age time.Duration, onlyIfSynced bool) (int, error)

	// Close releases the underlying storage.
	Close() error
}
