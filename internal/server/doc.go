// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package server runs the reference document server: startup, signal
// handling and graceful shutdown of the HTTP transport.
package server
