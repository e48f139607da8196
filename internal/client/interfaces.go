// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the lifecycle contract of the sync client.
type Client interface {
	// Start begins background syncing. It does not block.
	Start(ctx context.Context) error

	// Close stops syncing and releases the local store. Queued changes stay
	// persisted for the next run.
	Close() error
}

var _ Client = (*App)(nil)
