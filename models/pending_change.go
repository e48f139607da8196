// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ChangeType is the kind of a pending change.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// PendingChange is an edit not yet confirmed by the remote store. It is
// recorded when a save happens offline or a push fails, and removed once a
// push for the same document succeeds.
type PendingChange struct {
	// ID is the unique change identifier (UUIDv7).
	ID string `json:"id"`

	// DocumentID references the DocumentSnapshot the change belongs to.
	DocumentID string `json:"document_id"`

	// Type is create, update or delete.
	Type ChangeType `json:"type"`

	// Data holds the snapshot fields the change carries.
	Data DocumentEdit `json:"data"`

	// Version is the local snapshot version the change was recorded at.
	Version int64 `json:"version"`

	// Timestamp is when the change was recorded.
	Timestamp time.Time `json:"timestamp"`

	// RetryCount counts failed retries of this change.
	RetryCount int `json:"retry_count"`
}
