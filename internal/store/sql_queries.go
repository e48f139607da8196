// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-sync/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	getWorkflow = `SELECT id, name, description, content, version
		FROM workflows
		WHERE id = $1;`

	getWorkflowForUpdate = `SELECT id, name, description, content, version
		FROM workflows
		WHERE id = $1
		FOR UPDATE;`
)

func buildInsertWorkflowQuery(id string, req models.UpdateRequest) (string, []any, error) {
	return psql.Insert("workflows").
		Columns("id", "name", "description", "content", "version").
		Values(id, req.Name, req.Description, string(contentOrNull(req.Content)), 1).
		Suffix("RETURNING version").
		ToSql()
}

func buildUpdateWorkflowQuery(id string, req models.UpdateRequest) (string, []any, error) {
	return psql.Update("workflows").
		Set("name", req.Name).
		Set("description", req.Description).
		Set("content", string(contentOrNull(req.Content))).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING version").
		ToSql()
}

func contentOrNull(content []byte) []byte {
	if len(content) == 0 {
		return []byte("null")
	}
	return content
}
