// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	documentPath = "/api/workflows/{id}"
	healthPath   = "/api/health"
	versionPath  = "/api/version"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(middleware.Compress(5, "application/json"))
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	router.Get(healthPath, h.health)
	router.Get(versionPath, h.getServerVersion)

	router.Group(func(r chi.Router) {
		r.Use(h.withDocumentID)
		r.Get(documentPath, h.getDocument)
		r.Put(documentPath, h.updateDocument)
	})

	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	return router
}
