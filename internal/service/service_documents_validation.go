// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/validators"
	"github.com/MKhiriev/go-doc-sync/models"
)

// DocumentValidationService rejects invalid payloads before they reach the
// wrapped service.
type DocumentValidationService struct {
	inner     DocumentService
	validator validators.Validator
}

func NewDocumentValidationService() DocumentServiceWrapper {
	return &DocumentValidationService{
		validator: validators.NewDocumentValidator(),
	}
}

func (v *DocumentValidationService) GetDocument(ctx context.Context, id string) (models.RemoteDocument, error) {
	if err := v.validator.Validate(ctx, models.RemoteDocument{ID: id}, validators.FieldID); err != nil {
		return models.RemoteDocument{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return v.inner.GetDocument(ctx, id)
}

func (v *DocumentValidationService) UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (models.UpdateResponse, error) {
	if err := v.validator.Validate(ctx, models.RemoteDocument{ID: id}, validators.FieldID); err != nil {
		return models.UpdateResponse{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.UpdateResponse{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return v.inner.UpdateDocument(ctx, id, req)
}

func (v *DocumentValidationService) Wrap(inner DocumentService) DocumentService {
	v.inner = inner
	return v
}
