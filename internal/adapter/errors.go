// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-doc-sync/models"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrValidation      = errors.New("request rejected by remote store")
	ErrTransient       = errors.New("remote store unreachable")
)

// ConflictError is returned by UpdateDocument when the expected version does
// not match the stored one. Server holds the current authoritative document.
type ConflictError struct {
	Server models.RemoteDocument
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: server is at version %d", ErrVersionConflict, e.Server.Version)
}

func (e *ConflictError) Unwrap() error {
	return ErrVersionConflict
}

// ValidationError is returned for client errors other than conflicts,
// timeouts and rate limiting. Fields carries field-level detail when the
// store sent any.
type ValidationError struct {
	Status  int
	Message string
	Fields  []models.FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (http %d)", ErrValidation, e.Status)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "; %s: %s", f.Field, f.Message)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
