// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvictor struct {
	calls        atomic.Int32
	age          atomic.Int64
	onlyIfSynced atomic.Bool
	err          error
}

func (f *fakeEvictor) Evict(_ context.Context, age time.Duration, onlyIfSynced bool) (int, error) {
	f.calls.Add(1)
	f.age.Store(int64(age))
	f.onlyIfSynced.Store(onlyIfSynced)
	return 2, f.err
}

func TestEvictionJob_Defaults(t *testing.T) {
	j := NewEvictionJob(&fakeEvictor{}, 0, 0, logger.Nop())

	assert.Equal(t, time.Hour, j.interval)
	assert.Equal(t, 30*24*time.Hour, j.age)
}

func TestEvictionJob_RunOnce(t *testing.T) {
	ev := &fakeEvictor{}
	j := NewEvictionJob(ev, time.Minute, time.Hour, logger.Nop())

	n, err := j.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(time.Minute), ev.age.Load())
	assert.True(t, ev.onlyIfSynced.Load(), "pending snapshots are never evicted by the job")
}

func TestEvictionJob_StartStop(t *testing.T) {
	ev := &fakeEvictor{err: errors.New("disk busy")}
	j := NewEvictionJob(ev, time.Minute, 5*time.Millisecond, logger.Nop())

	j.Start(context.Background())
	require.Eventually(t, func() bool { return ev.calls.Load() >= 2 }, waitFor, tick, "errors do not stop the loop")

	j.Stop()
	stopped := ev.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, ev.calls.Load())

	j.Stop()
}

func TestEvictionJob_StopsWithContext(t *testing.T) {
	ev := &fakeEvictor{}
	j := NewEvictionJob(ev, time.Minute, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	j.Start(ctx)
	require.Eventually(t, func() bool { return ev.calls.Load() >= 1 }, waitFor, tick)
	cancel()

	done := make(chan struct{})
	go func() {
		j.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Stop did not return after the context was cancelled")
	}
}
