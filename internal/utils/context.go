// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides small helpers shared by the client and the server:
// typed context keys, JSON response writing and UUIDv7 identifiers.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// DocumentIDCtxKey holds the validated document id of the current request.
var DocumentIDCtxKey = contextKey("documentID")

// WithDocumentID returns a copy of ctx carrying id.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, DocumentIDCtxKey, id)
}

// GetDocumentIDFromContext retrieves the document id stored by
// [WithDocumentID]. ok is false when it is missing or empty.
func GetDocumentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(DocumentIDCtxKey).(string)
	return id, ok && id != ""
}
