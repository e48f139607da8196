// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the HTTP transport of the reference document
// server.
//
// It exposes route wiring, request handlers, and middleware used by the REST
// API. Request tracing, access logging, response compression and document id
// extraction are handled in this package before requests are delegated to
// the service layer.
package http
