// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport used by the sync engine to talk to
// the remote document store.
//
// The primary abstraction is [ServerAdapter], which decouples the sync
// manager from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Failures are mapped from HTTP status codes by mapHTTPError so that callers
// can use [errors.Is] and [errors.As] for transport-agnostic handling:
// [*ConflictError] for 409, [*ValidationError] for other client errors and
// [ErrTransient] for network failures, timeouts and 5xx answers.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the remote
// document store.
type ServerAdapter interface {
	// GetDocument fetches the authoritative document. Returns [ErrNotFound]
	// when the store has no document with that id.
	GetDocument(ctx context.Context, id string) (models.RemoteDocument, error)

	// UpdateDocument sends req to the store. On a version mismatch the
	// returned error is a [*ConflictError] carrying the server document.
	UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (models.UpdateResponse, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
