// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-doc-sync/internal/app"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
)

// getDocument serves GET /api/workflows/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id, _ := utils.GetDocumentIDFromContext(r.Context())

	doc, err := h.services.DocumentService.GetDocument(r.Context(), id)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getDocument").Str("document_id", id).Msg("error getting document")
		writeServiceError(w, err)
		return
	}

	if _, err = utils.WriteJSON(w, doc, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.getDocument").Msg("error writing response")
	}
}

// updateDocument serves PUT /api/workflows/{id}. A version mismatch answers
// 409 with the stored document as the body.
func (h *Handler) updateDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	id, _ := utils.GetDocumentIDFromContext(r.Context())

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.updateDocument").Msg(ErrInvalidJSON.Error())
		utils.WriteError(w, http.StatusBadRequest, app.MsgInvalidDataProvided)
		return
	}

	resp, err := h.services.DocumentService.UpdateDocument(r.Context(), id, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateDocument").Str("document_id", id).Msg("error updating document")
		writeServiceError(w, err)
		return
	}

	if _, err = utils.WriteJSON(w, resp, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.updateDocument").Msg("error writing response")
	}
}
