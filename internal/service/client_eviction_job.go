// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// Evictor removes stale local snapshots.
type Evictor interface {
	Evict(ctx context.Context, age time.Duration, onlyIfSynced bool) (int, error)
}

// EvictionJob periodically evicts synced snapshots untouched for longer than
// a configured age.
type EvictionJob struct {
	evictor  Evictor
	age      time.Duration
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEvictionJob creates an idle job. A non-positive interval defaults to
// one hour, a non-positive age to thirty days.
func NewEvictionJob(evictor Evictor, age, interval time.Duration, log *logger.Logger) *EvictionJob {
	if interval <= 0 {
		interval = time.Hour
	}
	if age <= 0 {
		age = 30 * 24 * time.Hour
	}
	return &EvictionJob{evictor: evictor, age: age, interval: interval, logger: log}
}

// RunOnce evicts synced snapshots older than the configured age.
func (j *EvictionJob) RunOnce(ctx context.Context) (int, error) {
	return j.evictor.Evict(ctx, j.age, true)
}

// Start stops any previously running loop, then evicts every interval until
// ctx is cancelled or Stop is called.
func (j *EvictionJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if _, err := j.RunOnce(jobCtx); err != nil {
					j.logger.Error().Err(err).Str("func", "EvictionJob.Start").Msg("eviction failed")
				}
			}
		}
	}()
}

// Stop cancels the loop and blocks until it exits. Safe to call when the job
// is not running.
func (j *EvictionJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
