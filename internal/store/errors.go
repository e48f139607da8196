// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by store methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrStoreUnavailable is returned when the underlying storage connection
	// is closed or cannot be reopened. The SQLite and bbolt stores reopen the
	// connection once and retry the operation once before returning it.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidSnapshot is returned by Put when the snapshot has no id or an
	// unknown sync status.
	ErrInvalidSnapshot = errors.New("invalid document snapshot")

	// ErrInvalidChange is returned by AddPendingChange when the change has no
	// id or document id.
	ErrInvalidChange = errors.New("invalid pending change")

	// ErrCorruptRecord is returned when a persisted record cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt stored record")

	// ErrDocumentNotFound is returned by the remote store repository when the
	// requested document does not exist.
	ErrDocumentNotFound = errors.New("document was not found")

	// ErrVersionConflict is returned when an optimistic-locking check fails:
	// the version supplied by the client does not match the current version
	// stored in the database, meaning another writer has modified the
	// document since the client last synchronized.
	ErrVersionConflict = errors.New("document version conflict occurred")

	// ErrDatabaseUnavailable wraps database failures classified as
	// [Retryable], such as lost connections or serialization failures.
	ErrDatabaseUnavailable = errors.New("database temporarily unavailable")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a multi-row result fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
