// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/app"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/internal/validators"
	"github.com/MKhiriev/go-doc-sync/models"
)

type errorStatus struct {
	status  int
	message string
}

var errorStatusMap = map[error]errorStatus{
	service.ErrInvalidDocument: {http.StatusBadRequest, app.MsgInvalidDocument},
	service.ErrEmptyDocumentID: {http.StatusBadRequest, app.MsgEmptyDocumentID},

	store.ErrDocumentNotFound:    {http.StatusNotFound, app.MsgDocumentNotFound},
	store.ErrDatabaseUnavailable: {http.StatusServiceUnavailable, app.MsgDatabaseUnavailable},

	store.ErrBuildingSQLQuery:     {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrExecutingQuery:       {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrBeginningTransaction: {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrCommitingTransaction: {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrExecutingStatement:   {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrScanningRow:          {http.StatusInternalServerError, app.MsgInternalServerError},
	store.ErrScanningRows:         {http.StatusInternalServerError, app.MsgInternalServerError},
}

func statusFromError(err error) (int, string) {
	for target, es := range errorStatusMap {
		if errors.Is(err, target) {
			return es.status, es.message
		}
	}
	return http.StatusInternalServerError, app.MsgInternalServerError
}

// writeServiceError answers a failed service call. A version conflict gets
// the stored document as its body, validation failures list their fields.
func writeServiceError(w http.ResponseWriter, err error) {
	var conflict *service.DocumentConflictError
	if errors.As(err, &conflict) {
		_, _ = utils.WriteJSON(w, conflict.Current, http.StatusConflict)
		return
	}

	status, message := statusFromError(err)

	var fields []models.FieldError
	var fieldErrs validators.FieldErrors
	if errors.As(err, &fieldErrs) {
		fields = fieldErrs
	}
	utils.WriteError(w, status, message, fields...)
}
