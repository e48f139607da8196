// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ConflictInfo describes a push rejected by the remote store because the
// expected version did not match. It lives only while the document status is
// conflict and carries both payloads so callers can render a diff.
type ConflictInfo struct {
	DocumentID    string         `json:"document_id"`
	LocalVersion  int64          `json:"local_version"`
	ServerVersion int64          `json:"server_version"`
	LocalData     DocumentEdit   `json:"local_data"`
	ServerData    RemoteDocument `json:"server_data"`
	Timestamp     time.Time      `json:"timestamp"`
}

// ResolutionPolicy selects how a conflict is resolved.
type ResolutionPolicy string

const (
	// ResolveLocal re-pushes the local payload bypassing the version check.
	ResolveLocal ResolutionPolicy = "local"
	// ResolveServer discards local edits and adopts the server document.
	ResolveServer ResolutionPolicy = "server"
)
