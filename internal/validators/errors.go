// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"errors"
	"strings"

	"github.com/MKhiriev/go-doc-sync/models"
)

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")
	ErrValidation      = errors.New("validation failed")

	ErrNameRequired            = errors.New("name is required")
	ErrNameTooLong             = errors.New("name is too long")
	ErrDescriptionTooLong      = errors.New("description is too long")
	ErrInvalidContent          = errors.New("content must be a JSON value")
	ErrInvalidExpectedVersion  = errors.New("expected version must not be negative")
	ErrInvalidDocumentIDLength = errors.New("document id is too long")
)

// FieldErrors collects every field-level failure of a validated value.
type FieldErrors []models.FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}

func (e *FieldErrors) add(field string, err error) {
	*e = append(*e, models.FieldError{Field: field, Message: err.Error()})
}
