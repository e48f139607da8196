// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-doc-sync/models"
)

// Client sync errors.
var (
	ErrOffline            = errors.New("offline: push not attempted")
	ErrConflict           = errors.New("version conflict")
	ErrTransient          = errors.New("transient sync failure")
	ErrValidationRejected = errors.New("payload rejected by remote store")
	ErrRetriesExhausted   = errors.New("retry limit reached")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrManagerClosed      = errors.New("sync manager is closed")
	ErrNotOpened          = errors.New("document is not opened")
)

// Server document service errors.
var (
	ErrInvalidDocument       = errors.New("invalid document")
	ErrEmptyDocumentID       = errors.New("empty document id")
	ErrVersionMismatch       = errors.New("expected version does not match")
	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)

// ConflictError reports a push rejected because of a version mismatch.
type ConflictError struct {
	Info models.ConflictInfo
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: document %s local version %d, server version %d",
		ErrConflict, e.Info.DocumentID, e.Info.LocalVersion, e.Info.ServerVersion)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// TransientError reports a push that failed without a verdict on the payload.
// The edit stays queued as a pending change.
type TransientError struct {
	Cause      error
	RetryCount int
	Exhausted  bool
}

func (e *TransientError) Error() string {
	msg := fmt.Sprintf("%s (retry %d): %v", ErrTransient, e.RetryCount, e.Cause)
	if e.Exhausted {
		msg = ErrRetriesExhausted.Error() + ": " + msg
	}
	return msg
}

func (e *TransientError) Unwrap() []error {
	errs := []error{ErrTransient, e.Cause}
	if e.Exhausted {
		errs = append(errs, ErrRetriesExhausted)
	}
	return errs
}

// ValidationError reports a payload refused by the remote store. It is never
// retried automatically.
type ValidationError struct {
	Message string
	Fields  []models.FieldError
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrValidationRejected.Error())
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
	return ErrValidationRejected
}

// DocumentConflictError is returned by the server document service on a
// version mismatch. Current is the stored document.
type DocumentConflictError struct {
	Current models.RemoteDocument
}

func (e *DocumentConflictError) Error() string {
	return fmt.Sprintf("%s: stored version is %d", ErrVersionMismatch, e.Current.Version)
}

func (e *DocumentConflictError) Unwrap() error {
	return ErrVersionMismatch
}
