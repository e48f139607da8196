// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/go-doc-sync/models"
)

// DocumentService serves the authoritative documents of the remote store.
type DocumentService interface {
	// GetDocument returns the stored document.
	GetDocument(ctx context.Context, id string) (models.RemoteDocument, error)

	// UpdateDocument applies req under an optimistic version check. On a
	// mismatch it returns a [*DocumentConflictError] carrying the stored
	// document.
	UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (models.UpdateResponse, error)
}

// HealthService reports whether the remote store can serve requests.
type HealthService interface {
	Check(ctx context.Context) error
}

type AppInfoService interface {
	GetAppInfo(ctx context.Context) models.AppInfo
}

// DocumentServiceWrapper defines middleware composition for DocumentService.
// Implementations wrap an existing DocumentService to add behavior such as
// validation.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService
}
