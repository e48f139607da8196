// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/MKhiriev/go-doc-sync/models"
)

const (
	FieldID              = "id"
	FieldName            = "name"
	FieldDescription     = "description"
	FieldContent         = "content"
	FieldExpectedVersion = "expectedVersion"
)

const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
	MaxDocumentIDLength  = 255
)

// DocumentValidator checks documents written to the remote store.
type DocumentValidator struct {
}

func NewDocumentValidator() Validator {
	return &DocumentValidator{}
}

// Validate accepts models.UpdateRequest and models.RemoteDocument (or
// pointers to them). When fields are given only those are checked.
func (v *DocumentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.UpdateRequest:
		return v.validateUpdateRequest(ctx, value, fields...)
	case *models.UpdateRequest:
		return v.validateUpdateRequest(ctx, *value, fields...)

	case models.RemoteDocument:
		return v.validateDocument(ctx, value, fields...)
	case *models.RemoteDocument:
		return v.validateDocument(ctx, *value, fields...)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (v *DocumentValidator) validateUpdateRequest(_ context.Context, req models.UpdateRequest, fields ...string) error {
	var errs FieldErrors
	for _, field := range selected(fields, FieldName, FieldDescription, FieldContent, FieldExpectedVersion) {
		switch field {
		case FieldName:
			checkName(&errs, req.Name)
		case FieldDescription:
			checkDescription(&errs, req.Description)
		case FieldContent:
			checkContent(&errs, req.Content)
		case FieldExpectedVersion:
			if req.ExpectedVersion < 0 {
				errs.add(FieldExpectedVersion, ErrInvalidExpectedVersion)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return result(errs)
}

func (v *DocumentValidator) validateDocument(_ context.Context, doc models.RemoteDocument, fields ...string) error {
	var errs FieldErrors
	for _, field := range selected(fields, FieldID, FieldName, FieldDescription, FieldContent) {
		switch field {
		case FieldID:
			if len(doc.ID) > MaxDocumentIDLength {
				errs.add(FieldID, ErrInvalidDocumentIDLength)
			}
		case FieldName:
			checkName(&errs, doc.Name)
		case FieldDescription:
			checkDescription(&errs, doc.Description)
		case FieldContent:
			checkContent(&errs, doc.Content)
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return result(errs)
}

func checkName(errs *FieldErrors, name string) {
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		errs.add(FieldName, ErrNameRequired)
	case n > MaxNameLength:
		errs.add(FieldName, ErrNameTooLong)
	}
}

func checkDescription(errs *FieldErrors, description string) {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		errs.add(FieldDescription, ErrDescriptionTooLong)
	}
}

// checkContent accepts any JSON value. An absent body is stored as null.
func checkContent(errs *FieldErrors, content json.RawMessage) {
	if len(content) > 0 && !json.Valid(content) {
		errs.add(FieldContent, ErrInvalidContent)
	}
}

func selected(fields []string, all ...string) []string {
	if len(fields) == 0 {
		return all
	}
	return fields
}

func result(errs FieldErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
