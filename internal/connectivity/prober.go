// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
)

// Pinger checks reachability of the remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober is a [Monitor] that pings the remote store every interval. It
// starts optimistic (online) until the first probe says otherwise. Only
// transport failures count as offline; any HTTP answer proves reachability.
type Prober struct {
	*state

	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProber returns an idle [Prober]. Call Start to begin probing.
func NewProber(pinger Pinger, interval time.Duration, log *logger.Logger) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Prober{
		state:    newState(true),
		pinger:   pinger,
		interval: interval,
		timeout:  interval / 2,
		logger:   log,
	}
}

// Check probes once and returns the resulting state.
func (p *Prober) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	online := err == nil || !errors.Is(err, adapter.ErrTransient)
	if p.set(online) {
		p.logger.Info().Str("func", "Prober.Check").Bool("online", online).AnErr("cause", err).Msg("connectivity changed")
	}
	return online
}

// Start stops any previous probing loop, probes immediately and then every
// interval until ctx is cancelled or Stop is called.
func (p *Prober) Start(ctx context.Context) {
	p.Stop()

	p.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		t := time.NewTicker(p.interval)
		defer t.Stop()

		p.Check(jobCtx)
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				p.Check(jobCtx)
			}
		}
	}()
}

// Stop cancels the probing loop and waits for it to exit. Safe to call when
// the prober is not running.
func (p *Prober) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}
