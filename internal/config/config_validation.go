// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks the merged [StructuredConfig]. Source-specific rules live
// in the binary-specific views.
func (cfg *StructuredConfig) validate() error {
	if cfg.Server.RequestTimeout < 0 || cfg.Adapter.RequestTimeout < 0 {
		return ErrInvalidServerConfigs
	}
	return nil
}

// ValidateServer checks the settings required by the reference remote store.
func (cfg *StructuredConfig) ValidateServer() error {
	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DSN == "" || strings.Contains(cfg.Storage.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Sync.DebounceDelay <= 0 || cfg.Sync.MaxRetries <= 0 || cfg.Sync.ProbeInterval <= 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Sync.EvictAfter <= 0 || cfg.Sync.EvictInterval <= 0 {
		return ErrInvalidSyncConfigs
	}

	return nil
}
