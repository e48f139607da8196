// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-doc-sync/models"
)

var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var documentColumns = []string{
	"id", "name", "description", "content", "version",
	"last_modified", "sync_status", "server_version",
}

var pendingChangeColumns = []string{
	"id", "document_id", "type", "data", "version", "timestamp", "retry_count",
}

const (
	upsertDocumentSuffix = `ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			content = excluded.content,
			version = excluded.version,
			last_modified = excluded.last_modified,
			sync_status = excluded.sync_status,
			server_version = excluded.server_version`

	upsertPendingChangeSuffix = `ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			type = excluded.type,
			data = excluded.data,
			version = excluded.version,
			timestamp = excluded.timestamp,
			retry_count = excluded.retry_count`

	getDocument = `
		SELECT id, name, description, content, version, last_modified, sync_status, server_version
		FROM documents
		WHERE id = ?;`

	deleteDocument = `DELETE FROM documents WHERE id = ?;`

	deletePendingChange = `DELETE FROM pending_changes WHERE id = ?;`

	clearPendingChanges = `DELETE FROM pending_changes WHERE document_id = ?;`
)

func buildUpsertDocumentQuery(d models.DocumentSnapshot, serverVersion any) (string, []any, error) {
	return sqlite.Insert("documents").
		Columns(documentColumns...).
		Values(d.ID, d.Name, d.Description, []byte(d.Content), d.Version,
			d.LastModified.UnixNano(), string(d.SyncStatus), serverVersion).
		Suffix(upsertDocumentSuffix).
		ToSql()
}

func buildUpsertPendingChangeQuery(c models.PendingChange, data []byte) (string, []any, error) {
	return sqlite.Insert("pending_changes").
		Columns(pendingChangeColumns...).
		Values(c.ID, c.DocumentID, string(c.Type), data, c.Version, c.Timestamp.UnixNano(), c.RetryCount).
		Suffix(upsertPendingChangeSuffix).
		ToSql()
}

func buildListByStatusQuery(status models.SyncStatus) (string, []any, error) {
	return sqlite.Select(documentColumns...).
		From("documents").
		Where(sq.Eq{"sync_status": string(status)}).
		OrderBy("last_modified").
		ToSql()
}

func buildListPendingChangesQuery(documentID string) (string, []any, error) {
	return sqlite.Select(pendingChangeColumns...).
		From("pending_changes").
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("timestamp", "id").
		ToSql()
}

// evictable selects synced documents older than cutoff. Pending and
// conflict snapshots never match.
func evictable(cutoff time.Time) sq.And {
	return sq.And{
		sq.Lt{"last_modified": cutoff.UnixNano()},
		sq.Eq{"sync_status": string(models.SyncStatusSynced)},
	}
}

func buildEvictDocumentsQuery(cutoff time.Time) (string, []any, error) {
	return sqlite.Delete("documents").Where(evictable(cutoff)).ToSql()
}

func buildEvictedChangesQuery(cutoff time.Time) (string, []any, error) {
	sub := sqlite.Select("id").From("documents").Where(evictable(cutoff))
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return "", nil, err
	}
	return sqlite.Delete("pending_changes").
		Where("document_id IN ("+subSQL+")", subArgs...).
		ToSql()
}

func buildPurgeOrphanChangesQuery(cutoff time.Time) (string, []any, error) {
	return sqlite.Delete("pending_changes").
		Where(sq.Lt{"timestamp": cutoff.UnixNano()}).
		Where("document_id NOT IN (SELECT id FROM documents)").
		ToSql()
}
