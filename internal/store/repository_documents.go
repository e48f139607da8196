// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/models"
)

// documentRepository is the PostgreSQL-backed implementation of
// [DocumentRepository]. Updates run in a transaction that locks the row
// before comparing versions.
type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository constructs a [DocumentRepository] backed by db.
func NewDocumentRepository(db *DB, logger *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: logger,
	}
}

// classify wraps err with [ErrDatabaseUnavailable] when the driver error is
// retryable, so upper layers can answer 503 instead of 500.
func (r *documentRepository) classify(sentinel, err error) error {
	if r.errorClassificator != nil && r.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", ErrDatabaseUnavailable, sentinel, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (r *documentRepository) GetDocument(ctx context.Context, id string) (models.RemoteDocument, error) {
	log := logger.FromContext(ctx)

	doc, err := scanRemoteDocument(r.DB.QueryRowContext(ctx, getWorkflow, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RemoteDocument{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.GetDocument").
			Str("document_id", id).
			Str("pg_code", postgresError(err)).
			Msg("failed to get document")
		return models.RemoteDocument{}, r.classify(ErrScanningRow, err)
	}

	return doc, nil
}

func (r *documentRepository) UpdateDocument(ctx context.Context, id string, req models.UpdateRequest) (int64, models.RemoteDocument, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.UpdateDocument").Msg("failed to begin transaction")
		return 0, models.RemoteDocument{}, r.classify(ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	current, err := scanRemoteDocument(tx.QueryRowContext(ctx, getWorkflowForUpdate, id))
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		log.Err(err).
			Str("func", "documentRepository.UpdateDocument").
			Str("document_id", id).
			Str("pg_code", postgresError(err)).
			Msg("failed to lock document row")
		return 0, models.RemoteDocument{}, r.classify(ErrScanningRow, err)
	}

	var query string
	var args []any
	switch {
	case !exists && req.ExpectedVersion != 0 && !req.ForceOverwrite:
		return 0, models.RemoteDocument{}, ErrDocumentNotFound
	case !exists:
		query, args, err = buildInsertWorkflowQuery(id, req)
	case !req.ForceOverwrite && current.Version != req.ExpectedVersion:
		log.Info().
			Str("func", "documentRepository.UpdateDocument").
			Str("document_id", id).
			Int64("expected_version", req.ExpectedVersion).
			Int64("stored_version", current.Version).
			Msg("version conflict")
		return 0, current, ErrVersionConflict
	default:
		query, args, err = buildUpdateWorkflowQuery(id, req)
	}
	if err != nil {
		return 0, models.RemoteDocument{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var version int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&version); err != nil {
		log.Err(err).
			Str("func", "documentRepository.UpdateDocument").
			Str("document_id", id).
			Str("pg_code", postgresError(err)).
			Msg("failed to write document")
		return 0, models.RemoteDocument{}, r.classify(ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "documentRepository.UpdateDocument").Msg("failed to commit transaction")
		return 0, models.RemoteDocument{}, r.classify(ErrCommitingTransaction, err)
	}

	return version, models.RemoteDocument{}, nil
}

func scanRemoteDocument(row rowScanner) (models.RemoteDocument, error) {
	var (
		doc     models.RemoteDocument
		content []byte
	)
	if err := row.Scan(&doc.ID, &doc.Name, &doc.Description, &content, &doc.Version); err != nil {
		return models.RemoteDocument{}, err
	}
	doc.Content = content
	return doc, nil
}
