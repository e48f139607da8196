// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// RemoteDocument is the authoritative document as held by the remote store.
type RemoteDocument struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content"`
	Version     int64           `json:"version"`
}

// UpdateRequest is the body of a remote update. ExpectedVersion must match
// the stored version unless ForceOverwrite is set.
type UpdateRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Content         json.RawMessage `json:"content"`
	ExpectedVersion int64           `json:"expectedVersion"`
	ForceOverwrite  bool            `json:"forceOverwrite,omitempty"`
}

// UpdateResponse is returned by the remote store on a successful update.
type UpdateResponse struct {
	Version int64 `json:"version"`
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body returned by the remote store on a non-conflict
// failure.
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}
