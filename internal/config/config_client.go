// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the base URL of the remote store.
	HTTPAddress string
	// RequestTimeout is the timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientStorage holds the durable store settings.
type ClientStorage struct {
	// DSN is a SQLite file path or a "bolt://" URL.
	DSN string
}

// ClientSync contains sync manager and background job settings.
type ClientSync struct {
	DebounceDelay time.Duration
	MaxRetries    int
	ProbeInterval time.Duration
	EvictAfter    time.Duration
	EvictInterval time.Duration
}

// ClientLog contains client log file settings.
type ClientLog struct {
	File      string
	MaxSizeMB int
}

// ClientConfig is the client configuration view assembled from
// [StructuredConfig].
type ClientConfig struct {
	Adapter ClientAdapter
	Storage ClientStorage
	Sync    ClientSync
	Log     ClientLog
}

// GetClientConfig builds and validates the client configuration from
// environment variables and, when jsonPath (or the CONFIG variable) is set,
// a JSON file. Command-line flags are owned by the client CLI and are not
// parsed here.
func GetClientConfig(jsonPath string) (*ClientConfig, error) {
	b := newConfigBuilder().withEnv()
	if jsonPath != "" {
		b.configs = append(b.configs, &StructuredConfig{JSONFilePath: jsonPath})
	}

	cfg, err := b.withJSON().build()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{DSN: cfg.Storage.Local.DSN},
		Sync: ClientSync{
			DebounceDelay: cfg.Sync.DebounceDelay,
			MaxRetries:    cfg.Sync.MaxRetries,
			ProbeInterval: cfg.Sync.ProbeInterval,
			EvictAfter:    cfg.Sync.EvictAfter,
			EvictInterval: cfg.Sync.EvictInterval,
		},
		Log: ClientLog{File: cfg.Log.File, MaxSizeMB: cfg.Log.MaxSizeMB},
	}

	return clientCfg, clientCfg.validate()
}
