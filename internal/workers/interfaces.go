// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers manages the background loops of the sync client, such as
// the connectivity prober and the eviction job. The Workers aggregate starts
// and stops them as one unit.
package workers

import "context"

// Worker is a background loop.
//
// Start must not block: implementations spawn their own goroutine that runs
// until ctx is done or Stop is called. Stop blocks until that goroutine has
// exited and is safe to call on a worker that was never started.
//
// Example implementation:
//
//	type MyWorker struct{ cancel context.CancelFunc }
//
//	func (w *MyWorker) Start(ctx context.Context) {
//	    ctx, w.cancel = context.WithCancel(ctx)
//	    go loop(ctx)
//	}
//
//	func (w *MyWorker) Stop() { w.cancel() }
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
