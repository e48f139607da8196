// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/migrations"
)

// DB wraps a *sql.DB together with the error classifier of its driver.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
	dialect            string
}

// Migrate applies the embedded migrations matching the connection's dialect.
func (db *DB) Migrate() error {
	if db.dialect == dialectSQLite {
		return migrations.MigrateClient(db.DB)
	}
	return migrations.MigrateServer(db.DB)
}

const (
	dialectSQLite   = "sqlite3"
	dialectPostgres = "pgx"
)
