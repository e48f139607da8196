// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MKhiriev/go-doc-sync/internal/app"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
)

// withDocumentID moves the {id} path parameter into the request context and
// the request logger. A blank id is answered with 400.
func (h *Handler) withDocumentID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		if id == "" {
			logger.FromRequest(r).Warn().Err(ErrMissingDocumentID).Str("func", "*Handler.withDocumentID").Send()
			utils.WriteError(w, http.StatusBadRequest, app.MsgEmptyDocumentID)
			return
		}

		l := logger.FromRequest(r)
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("document_id", id)
		})

		ctx := utils.WithDocumentID(l.WithContext(r.Context()), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	utils.WriteError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	utils.WriteError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}
