// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package migrations embeds and applies the goose schema migrations of the
// local durable store (client/, SQLite) and the reference remote store
// (server/, PostgreSQL).
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed client/*.sql server/*.sql
var embedMigrations embed.FS

var errNilDB = errors.New("db is nil")

const (
	clientDir = "client"
	serverDir = "server"
)

// MigrateClient brings the local SQLite schema up to date.
func MigrateClient(db *sql.DB) error {
	return migrate(db, "sqlite3", clientDir)
}

// MigrateServer brings the PostgreSQL schema of the remote store up to date.
func MigrateServer(db *sql.DB) error {
	return migrate(db, "pgx", serverDir)
}

func migrate(db *sql.DB, dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
