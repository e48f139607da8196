// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/models"
)

type documentService struct {
	documentRepository store.DocumentRepository

	logger *logger.Logger
}

func NewDocumentService(documentRepository store.DocumentRepository, logger *logger.Logger) DocumentService {
	return &documentService{
		documentRepository: documentRepository,
		logger:             logger,
	}
}

func (s *documentService) GetDocument(ctx context.Context, id string) (models.RemoteDocument, error) {
	if id == "" {
		return models.RemoteDocument{}, ErrEmptyDocumentID
	}
	return s.documentRepository.GetDocument(ctx, id)
}

func (s *documentService) UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (models.UpdateResponse, error) {
	if id == "" {
		return models.UpdateResponse{}, ErrEmptyDocumentID
	}

	version, current, err := s.documentRepository.UpdateDocument(ctx, id, req)
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		current.ID = id
		logger.FromContext(ctx).Info().
			Str("func", "documentService.UpdateDocument").
			Str("document_id", id).
			Int64("expected_version", req.ExpectedVersion).
			Int64("stored_version", current.Version).
			Msg("version mismatch")
		return models.UpdateResponse{}, &DocumentConflictError{Current: current}
	case err != nil:
		return models.UpdateResponse{}, fmt.Errorf("update document %s: %w", id, err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "documentService.UpdateDocument").
		Str("document_id", id).
		Int64("version", version).
		Bool("force", req.ForceOverwrite).
		Msg("document updated")
	return models.UpdateResponse{Version: version}, nil
}
