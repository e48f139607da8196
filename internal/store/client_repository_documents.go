// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// sqliteStore is the SQLite-backed [DurableStore]. Operations that fail
// because the connection was lost reopen it once and retry once.
type sqliteStore struct {
	mu     sync.RWMutex
	db     *DB
	open   func(ctx context.Context) (*DB, error)
	closed bool
	logger *logger.Logger
}

// NewSQLiteStore opens (and migrates) the SQLite database at path.
func NewSQLiteStore(ctx context.Context, path string, log *logger.Logger) (DurableStore, error) {
	open := func(ctx context.Context) (*DB, error) {
		db, err := NewConnectSQLite(ctx, path, log)
		if err != nil {
			return nil, err
		}
		if err = db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return db, nil
	}

	db, err := open(ctx)
	if err != nil {
		return nil, err
	}

	return &sqliteStore{db: db, open: open, logger: log}, nil
}

func (s *sqliteStore) conn() (*DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store is closed", ErrStoreUnavailable)
	}
	return s.db, nil
}

func (s *sqliteStore) reopen(ctx context.Context, stale *DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("store is closed")
	}
	if s.db != stale {
		// another caller already reopened
		return nil
	}

	_ = s.db.Close()
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// do runs op and, when it fails because the connection is gone, reopens the
// connection and runs op exactly once more.
func (s *sqliteStore) do(ctx context.Context, fn string, op func(db *DB) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	err = op(db)
	if err == nil || db.errorClassificator.Classify(err) != Retryable {
		return err
	}

	s.logger.Warn().Err(err).Str("func", fn).Msg("storage connection lost, reopening")
	if reopenErr := s.reopen(ctx, db); reopenErr != nil {
		s.logger.Err(reopenErr).Str("func", fn).Msg("failed to reopen storage connection")
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(err, reopenErr))
	}

	if db, err = s.conn(); err != nil {
		return err
	}
	if err = op(db); err != nil && db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func (s *sqliteStore) Put(ctx context.Context, snapshot models.DocumentSnapshot) error {
	if snapshot.ID == "" || !snapshot.SyncStatus.Valid() {
		return ErrInvalidSnapshot
	}

	var serverVersion any
	if snapshot.ServerVersion != nil {
		serverVersion = *snapshot.ServerVersion
	}

	query, args, err := buildUpsertDocumentQuery(snapshot, serverVersion)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.do(ctx, "sqliteStore.Put", func(db *DB) error {
		if _, execErr := db.ExecContext(ctx, query, args...); execErr != nil {
			s.logger.Err(execErr).
				Str("func", "sqliteStore.Put").
				Str("document_id", snapshot.ID).
				Int64("version", snapshot.Version).
				Msg("failed to upsert document snapshot")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		return nil
	})
}

func (s *sqliteStore) Get(ctx context.Context, id string) (models.DocumentSnapshot, bool, error) {
	var (
		snapshot models.DocumentSnapshot
		found    bool
	)

	err := s.do(ctx, "sqliteStore.Get", func(db *DB) error {
		row := db.QueryRowContext(ctx, getDocument, id)
		var scanErr error
		snapshot, scanErr = scanDocument(row)
		if errors.Is(scanErr, sql.ErrNoRows) {
			found = false
			return nil
		}
		if scanErr != nil {
			return scanErr
		}
		found = true
		return nil
	})
	if err != nil {
		s.logger.Err(err).Str("func", "sqliteStore.Get").Str("document_id", id).Msg("failed to get document snapshot")
		return models.DocumentSnapshot{}, false, err
	}

	return snapshot, found, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, "sqliteStore.Delete", func(db *DB) error {
		if _, err := db.ExecContext(ctx, deleteDocument, id); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		return nil
	})
}

func (s *sqliteStore) ListByStatus(ctx context.Context, status models.SyncStatus) ([]models.DocumentSnapshot, error) {
	query, args, err := buildListByStatusQuery(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var result []models.DocumentSnapshot
	err = s.do(ctx, "sqliteStore.ListByStatus", func(db *DB) error {
		rows, queryErr := db.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
		}
		defer rows.Close()

		result = make([]models.DocumentSnapshot, 0, 8)
		for rows.Next() {
			snapshot, scanErr := scanDocument(rows)
			if scanErr != nil {
				return scanErr
			}
			result = append(result, snapshot)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
		}
		return nil
	})
	if err != nil {
		s.logger.Err(err).Str("func", "sqliteStore.ListByStatus").Str("status", string(status)).Msg("failed to list snapshots")
		return nil, err
	}

	return result, nil
}

func (s *sqliteStore) AddPendingChange(ctx context.Context, change models.PendingChange) error {
	if change.ID == "" || change.DocumentID == "" {
		return ErrInvalidChange
	}

	data, err := json.Marshal(change.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChange, err)
	}

	query, args, err := buildUpsertPendingChangeQuery(change, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.do(ctx, "sqliteStore.AddPendingChange", func(db *DB) error {
		if _, execErr := db.ExecContext(ctx, query, args...); execErr != nil {
			s.logger.Err(execErr).
				Str("func", "sqliteStore.AddPendingChange").
				Str("document_id", change.DocumentID).
				Str("change_id", change.ID).
				Msg("failed to save pending change")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		return nil
	})
}

func (s *sqliteStore) ListPendingChanges(ctx context.Context, documentID string) ([]models.PendingChange, error) {
	query, args, err := buildListPendingChangesQuery(documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var result []models.PendingChange
	err = s.do(ctx, "sqliteStore.ListPendingChanges", func(db *DB) error {
		rows, queryErr := db.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
		}
		defer rows.Close()

		result = make([]models.PendingChange, 0, 4)
		for rows.Next() {
			var (
				change     models.PendingChange
				changeType string
				data       []byte
				ts         int64
			)
			if scanErr := rows.Scan(&change.ID, &change.DocumentID, &changeType, &data,
				&change.Version, &ts, &change.RetryCount); scanErr != nil {
				return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
			}
			if jsonErr := json.Unmarshal(data, &change.Data); jsonErr != nil {
				return fmt.Errorf("%w: pending change %s: %w", ErrCorruptRecord, change.ID, jsonErr)
			}
			change.Type = models.ChangeType(changeType)
			change.Timestamp = time.Unix(0, ts).UTC()
			result = append(result, change)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
		}
		return nil
	})
	if err != nil {
		s.logger.Err(err).Str("func", "sqliteStore.ListPendingChanges").Str("document_id", documentID).Msg("failed to list pending changes")
		return nil, err
	}

	return result, nil
}

func (s *sqliteStore) RemovePendingChange(ctx context.Context, id string) error {
	return s.do(ctx, "sqliteStore.RemovePendingChange", func(db *DB) error {
		if _, err := db.ExecContext(ctx, deletePendingChange, id); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		return nil
	})
}

func (s *sqliteStore) ClearPendingChanges(ctx context.Context, documentID string) error {
	return s.do(ctx, "sqliteStore.ClearPendingChanges", func(db *DB) error {
		if _, err := db.ExecContext(ctx, clearPendingChanges, documentID); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		return nil
	})
}

func (s *sqliteStore) EvictOlderThan(ctx context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	cutoff := time.Now().Add(-age)

	changesQuery, changesArgs, err := buildEvictedChangesQuery(cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	docsQuery, docsArgs, err := buildEvictDocumentsQuery(cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	orphansQuery, orphansArgs, err := buildPurgeOrphanChangesQuery(cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var evicted int64
	err = s.do(ctx, "sqliteStore.EvictOlderThan", func(db *DB) error {
		tx, txErr := db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("%w: %w", ErrBeginningTransaction, txErr)
		}
		defer tx.Rollback()

		if _, execErr := tx.ExecContext(ctx, changesQuery, changesArgs...); execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		res, execErr := tx.ExecContext(ctx, docsQuery, docsArgs...)
		if execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}
		if evicted, execErr = res.RowsAffected(); execErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
		}

		if !onlyIfSynced {
			if _, execErr = tx.ExecContext(ctx, orphansQuery, orphansArgs...); execErr != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, execErr)
			}
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
		}
		return nil
	})
	if err != nil {
		s.logger.Err(err).Str("func", "sqliteStore.EvictOlderThan").Dur("age", age).Msg("eviction failed")
		return 0, err
	}

	s.logger.Debug().Str("func", "sqliteStore.EvictOlderThan").Int64("evicted", evicted).Msg("evicted stale snapshots")
	return int(evicted), nil
}

func (s *sqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.DocumentSnapshot, error) {
	var (
		snapshot      models.DocumentSnapshot
		content       []byte
		lastModified  int64
		status        string
		serverVersion sql.NullInt64
	)

	err := row.Scan(&snapshot.ID, &snapshot.Name, &snapshot.Description, &content,
		&snapshot.Version, &lastModified, &status, &serverVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return snapshot, err
	}
	if err != nil {
		return snapshot, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	snapshot.SyncStatus = models.SyncStatus(status)
	if !snapshot.SyncStatus.Valid() {
		return snapshot, fmt.Errorf("%w: document %s has sync status %q", ErrCorruptRecord, snapshot.ID, status)
	}
	if len(content) > 0 {
		snapshot.Content = content
	}
	snapshot.LastModified = time.Unix(0, lastModified).UTC()
	if serverVersion.Valid {
		snapshot.ServerVersion = models.Int64Ptr(serverVersion.Int64)
	}

	return snapshot, nil
}
