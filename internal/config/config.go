// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// server and client binaries. It is populated by merging environment
// variables, command-line flags and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the server database and the client
	// durable store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the listen address and timeouts of the reference remote
	// store.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the client's view of the remote store.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds the client synchronization tuning knobs.
	Sync Sync `envPrefix:"SYNC_"`

	// Log holds client log file settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Env: CONFIG, flag: -c / -config.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version string of the running application.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the server-side relational database settings.
	DB DB `envPrefix:"DB_"`

	// Local holds the client durable store settings.
	Local Local `envPrefix:"LOCAL_"`
}

// DB holds connection settings for the server database.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Local holds settings for the client durable store.
type Local struct {
	// DSN selects the backend: a SQLite file path, or "bolt://<path>" for
	// the bbolt backend.
	// Env: STORAGE_LOCAL_DSN
	DSN string `env:"DSN"`
}

// Server holds network and timeout settings for the inbound transport layer.
type Server struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the client transport settings.
type Adapter struct {
	// HTTPAddress is the base address of the remote store.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request. A push that times out
	// is treated as a transient failure.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds client synchronization settings.
type Sync struct {
	// DebounceDelay is the quiet period after the last edit before a push.
	// Env: SYNC_DEBOUNCE_DELAY
	DebounceDelay time.Duration `env:"DEBOUNCE_DELAY"`

	// MaxRetries is the retry count after which failures are reported as
	// exhausted.
	// Env: SYNC_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// ProbeInterval is how often connectivity to the remote store is probed.
	// Env: SYNC_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// EvictAfter is the age after which synced snapshots are evicted.
	// Env: SYNC_EVICT_AFTER
	EvictAfter time.Duration `env:"EVICT_AFTER"`

	// EvictInterval is how often the eviction job runs.
	// Env: SYNC_EVICT_INTERVAL
	EvictInterval time.Duration `env:"EVICT_INTERVAL"`
}

// Log holds client log file settings.
type Log struct {
	// File is the rotating log file path.
	// Env: LOG_FILE
	File string `env:"FILE"`

	// MaxSizeMB is the rotation threshold.
	// Env: LOG_MAX_SIZE_MB
	MaxSizeMB int `env:"MAX_SIZE_MB"`
}

// defaults returns the values applied to fields left empty by every source.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Adapter: Adapter{
			HTTPAddress:    "http://localhost:8080",
			RequestTimeout: 10 * time.Second,
		},
		Storage: Storage{
			Local: Local{DSN: "docsync.db"},
		},
		Sync: Sync{
			DebounceDelay: time.Second,
			MaxRetries:    5,
			ProbeInterval: 15 * time.Second,
			EvictAfter:    30 * 24 * time.Hour,
			EvictInterval: time.Hour,
		},
		Log: Log{MaxSizeMB: 10},
	}
}

// GetStructuredConfig loads, merges and validates the configuration for the
// server binary from:
//  1. Environment variables
//  2. Command-line flags (args)
//  3. JSON file (path resolved from sources 1 and 2)
//
// Values from earlier sources win for fields set in several sources.
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
