// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the offline-first sync client: local durable
// store, server adapter, connectivity prober, sync manager and background
// workers, under a single process lifecycle.
package client
