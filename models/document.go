// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// SyncStatus describes how a local document snapshot relates to the copy
// held by the remote store.
type SyncStatus string

const (
	// SyncStatusSynced means the local version equals the last version
	// acknowledged by the remote store.
	SyncStatusSynced SyncStatus = "synced"
	// SyncStatusPending means the snapshot carries local edits the remote
	// store has not confirmed yet.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusConflict means the most recent push was rejected because of a
	// version mismatch and no resolution has been applied.
	SyncStatusConflict SyncStatus = "conflict"
)

// Valid reports whether s is one of the known statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncStatusSynced, SyncStatusPending, SyncStatusConflict:
		return true
	}
	return false
}

// DocumentSnapshot is the unit of local persistence. Exactly one snapshot
// exists per document id.
type DocumentSnapshot struct {
	// ID is the owner-assigned document identifier.
	ID string `json:"id"`

	// Name is the editable document title.
	Name string `json:"name"`

	// Description is the editable free-form description.
	Description string `json:"description"`

	// Content is the opaque serialized document body (the workflow graph).
	Content json.RawMessage `json:"content"`

	// Version is incremented by exactly one on every persisted local edit,
	// whether or not the edit has reached the remote store.
	Version int64 `json:"version"`

	// LastModified is the time of the most recent local write.
	LastModified time.Time `json:"last_modified"`

	// SyncStatus is synced iff Version equals ServerVersion.
	SyncStatus SyncStatus `json:"sync_status"`

	// ServerVersion is the last version the remote store accepted.
	// Nil until the first successful round trip.
	ServerVersion *int64 `json:"server_version,omitempty"`
}

// BaseVersion returns the version the remote store is expected to hold,
// used as expectedVersion on push. Zero when the document never reached
// the server.
func (d DocumentSnapshot) BaseVersion() int64 {
	if d.ServerVersion == nil {
		return 0
	}
	return *d.ServerVersion
}

// IsSynced reports whether the snapshot matches the acknowledged server version.
func (d DocumentSnapshot) IsSynced() bool {
	return d.ServerVersion != nil && *d.ServerVersion == d.Version
}

// DocumentEdit carries the editable fields of a document. A nil field is
// left untouched when the edit is applied.
type DocumentEdit struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
}

// Apply copies the non-nil fields of e onto d.
func (e DocumentEdit) Apply(d *DocumentSnapshot) {
	if e.Name != nil {
		d.Name = *e.Name
	}
	if e.Description != nil {
		d.Description = *e.Description
	}
	if e.Content != nil {
		d.Content = append(json.RawMessage(nil), e.Content...)
	}
}

// EditOf builds a full DocumentEdit from the current fields of d.
func EditOf(d DocumentSnapshot) DocumentEdit {
	name, description := d.Name, d.Description
	return DocumentEdit{
		Name:        &name,
		Description: &description,
		Content:     append(json.RawMessage(nil), d.Content...),
	}
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
