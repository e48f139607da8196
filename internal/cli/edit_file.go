// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/MKhiriev/go-doc-sync/models"
)

// ErrEmptyEdit is returned for an edit file that changes nothing.
var ErrEmptyEdit = errors.New("edit file sets no field")

// readEditFile parses a JSON file of the form
//
//	{"name": "...", "description": "...", "content": {...}}
//
// Omitted fields are left unchanged.
func readEditFile(path string) (models.DocumentEdit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.DocumentEdit{}, fmt.Errorf("read edit file: %w", err)
	}
	return parseEdit(data)
}

func parseEdit(data []byte) (models.DocumentEdit, error) {
	var edit models.DocumentEdit
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&edit); err != nil {
		return models.DocumentEdit{}, fmt.Errorf("parse edit file: %w", err)
	}
	if edit.Name == nil && edit.Description == nil && edit.Content == nil {
		return models.DocumentEdit{}, ErrEmptyEdit
	}
	return edit, nil
}
