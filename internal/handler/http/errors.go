// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

var (
	// ErrInvalidJSON is logged when the request body cannot be decoded.
	ErrInvalidJSON = errors.New("invalid JSON in request body")

	// ErrMissingDocumentID is returned by the document id middleware when the
	// {id} path segment is blank.
	ErrMissingDocumentID = errors.New("missing document id in path")
)
