// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// go-doc-sync server handlers and middleware.
//
// All Msg* constants are human-readable message strings written into HTTP
// response bodies.
package app

const (
	// MsgInvalidDataProvided is returned when the request body cannot be
	// decoded as an update request.
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidDocument is returned when the payload fails field validation.
	// Field-level details travel in the "errors" array of the body.
	MsgInvalidDocument = "invalid document"

	// MsgEmptyDocumentID is returned when the {id} path segment is blank.
	MsgEmptyDocumentID = "empty document id"

	// MsgDocumentNotFound is returned when the requested document does not
	// exist.
	MsgDocumentNotFound = "document not found"

	// MsgDatabaseUnavailable is returned when the database cannot be reached.
	// Clients treat it as transient and retry.
	MsgDatabaseUnavailable = "database temporarily unavailable"

	// MsgInternalServerError is returned when an unexpected server-side
	// failure occurs that the client cannot resolve.
	MsgInternalServerError = "internal server error"
)
