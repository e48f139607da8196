// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/connectivity"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/service"
	"github.com/MKhiriev/go-doc-sync/internal/store"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/internal/workers"
	"github.com/MKhiriev/go-doc-sync/models"
)

// App wires the local store, the server adapter, the connectivity prober,
// the sync manager and the eviction job of one client process.
type App struct {
	store   *store.DegradingStore
	remote  adapter.ServerAdapter
	prober  *connectivity.Prober
	manager *service.SyncManager
	evictor *service.EvictionJob
	workers *workers.Workers
	logger  *logger.Logger

	closeOnce sync.Once
}

// NewApp builds an idle client from cfg. Nothing touches the network until
// Start.
func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	remote, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	localStore := store.NewClientStorage(ctx, cfg.Storage, log)
	prober := connectivity.NewProber(remote, cfg.Sync.ProbeInterval, log)
	manager := service.NewSyncManager(localStore, remote, prober, cfg.Sync, utils.NewUUIDGenerator(), log)
	evictor := service.NewEvictionJob(manager, cfg.Sync.EvictAfter, cfg.Sync.EvictInterval, log)

	return &App{
		store:   localStore,
		remote:  remote,
		prober:  prober,
		manager: manager,
		evictor: evictor,
		workers: workers.NewWorkers(prober, evictor),
		logger:  log,
	}, nil
}

// Start probes the server once, starts the sync manager (which flushes
// queued changes when online) and launches the background workers.
func (a *App) Start(ctx context.Context) error {
	online := a.Probe(ctx)
	a.logger.Info().Str("func", "App.Start").Bool("online", online).Bool("storage_degraded", a.store.Degraded()).Msg("starting client")

	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start sync manager: %w", err)
	}
	a.workers.Run(ctx)
	return nil
}

// Probe checks the server once and updates the connectivity state without
// starting any background work.
func (a *App) Probe(ctx context.Context) bool {
	return a.prober.Check(ctx)
}

// Load probes the server once and restores the conflicts of a previous run
// without starting any background work.
func (a *App) Load(ctx context.Context) error {
	a.Probe(ctx)
	if _, err := a.manager.RestoreConflicts(ctx); err != nil {
		return fmt.Errorf("restore conflicts: %w", err)
	}
	return nil
}

// Manager exposes the sync manager for commands that work across documents.
func (a *App) Manager() *service.SyncManager {
	return a.manager
}

// Open reconciles document id and returns a save controller bound to it.
func (a *App) Open(ctx context.Context, id string) (*service.SaveController, models.DocumentSnapshot, error) {
	c := service.NewSaveController(a.manager, id, a.logger)
	snap, err := c.Open(ctx)
	if err != nil {
		return nil, models.DocumentSnapshot{}, fmt.Errorf("open document %s: %w", id, err)
	}
	return c, snap, nil
}

// Close stops the workers, the sync manager and the local store.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.workers.Stop()
		err = errors.Join(a.manager.Close(), a.store.Close())
	})
	return err
}
