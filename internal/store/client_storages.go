// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// boltScheme selects the bbolt backend when used as a DSN prefix.
const boltScheme = "bolt://"

// OpenDurableStore opens the backend selected by dsn: "bolt://<path>" for
// bbolt, anything else is a SQLite file path.
func OpenDurableStore(ctx context.Context, dsn string, log *logger.Logger) (DurableStore, error) {
	if path, ok := strings.CutPrefix(dsn, boltScheme); ok {
		return NewBoltStore(path, log)
	}
	return NewSQLiteStore(ctx, dsn, log)
}

// NewClientStorage opens the local durable store described by cfg and wraps
// it in a [DegradingStore]. It never fails: when the backend cannot be
// opened the returned store starts in memory-only mode and reports
// Degraded() == true.
func NewClientStorage(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) *DegradingStore {
	log.Info().Str("func", "NewClientStorage").Msg("creating local durable store...")

	primary, err := OpenDurableStore(ctx, cfg.DSN, log)
	if err != nil {
		log.Err(err).Str("func", "NewClientStorage").Str("dsn", cfg.DSN).Msg("durable store unavailable, starting in memory only")
		s := NewDegradingStore(nil, log)
		s.cause = err
		return s
	}

	s := NewDegradingStore(primary, log)
	if err = s.Warm(ctx); err != nil {
		log.Err(err).Str("func", "NewClientStorage").Msg("failed to warm memory mirror")
	}
	return s
}
