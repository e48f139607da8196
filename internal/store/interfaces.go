// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DocumentRepository persists the authoritative documents of the remote store.
type DocumentRepository interface {
	// GetDocument returns the stored document or [ErrDocumentNotFound].
	GetDocument(ctx context.Context, id string) (models.RemoteDocument, error)

	// UpdateDocument applies req to the document with the given id under an
	// optimistic version check and returns the new version.
	//
	// When the document does not exist and req.ExpectedVersion is zero (or
	// req.ForceOverwrite is set) it is created at version 1. On a version
	// mismatch [ErrVersionConflict] is returned together with the current
	// stored document.
	UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (version int64, current models.RemoteDocument, err error)
}

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
