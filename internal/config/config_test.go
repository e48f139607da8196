// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// ── build ─────────────────────────────────────────────────────────────────────

func TestBuild_EmptyBuilderAppliesDefaults(t *testing.T) {
	cfg, err := newConfigBuilder().build()

	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.Sync.DebounceDelay)
	assert.Equal(t, 5, cfg.Sync.MaxRetries)
	assert.Equal(t, "docsync.db", cfg.Storage.Local.DSN)
}

func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Sync: Sync{MaxRetries: 2}},
		&StructuredConfig{Sync: Sync{MaxRetries: 9, DebounceDelay: 3 * time.Second}},
	)

	cfg, err := b.build()

	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Sync.MaxRetries)
	assert.Equal(t, 3*time.Second, cfg.Sync.DebounceDelay)
}

func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, assert.AnError)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

func TestWithJSON_NoOpWhenNoPath(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})
	b.withJSON()

	assert.Len(t, b.configs, 1)
	assert.NoError(t, b.err)
}

func TestWithJSON_ParsesFile(t *testing.T) {
	path := writeTempFile(t, `{
		"storage": {"local": {"dsn": "bolt:///tmp/docs.bolt"}},
		"adapter": {"http_address": "http://remote:8080", "request_timeout": "3s"},
		"sync": {"debounce_delay": "250ms", "max_retries": 3}
	}`)

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	got := b.configs[1]
	assert.Equal(t, "bolt:///tmp/docs.bolt", got.Storage.Local.DSN)
	assert.Equal(t, "http://remote:8080", got.Adapter.HTTPAddress)
	assert.Equal(t, 3*time.Second, got.Adapter.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, got.Sync.DebounceDelay)
	assert.Equal(t, 3, got.Sync.MaxRetries)
}

func TestWithJSON_MalformedFile(t *testing.T) {
	path := writeTempFile(t, "{not valid json")

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	assert.Error(t, b.err)
}

func TestWithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/nonexistent/config.json"})
	b.withJSON()

	assert.Error(t, b.err)
}

// ── GetClientConfig ───────────────────────────────────────────────────────────

func TestGetClientConfig_Defaults(t *testing.T) {
	cfg, err := GetClientConfig("")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Equal(t, time.Second, cfg.Sync.DebounceDelay)
	assert.Equal(t, time.Hour, cfg.Sync.EvictInterval)
}

func TestGetClientConfig_EnvOverridesJSON(t *testing.T) {
	path := writeTempFile(t, `{"sync": {"max_retries": 3}, "storage": {"local": {"dsn": "from-json.db"}}}`)
	t.Setenv("SYNC_MAX_RETRIES", "8")

	cfg, err := GetClientConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Sync.MaxRetries)
	assert.Equal(t, "from-json.db", cfg.Storage.DSN)
}

func TestGetClientConfig_RejectsInMemoryDSN(t *testing.T) {
	t.Setenv("STORAGE_LOCAL_DSN", ":memory:")

	_, err := GetClientConfig("")

	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

func TestClientConfigValidate(t *testing.T) {
	valid := func() *ClientConfig {
		return &ClientConfig{
			Adapter: ClientAdapter{HTTPAddress: "http://x", RequestTimeout: time.Second},
			Storage: ClientStorage{DSN: "local.db"},
			Sync: ClientSync{
				DebounceDelay: time.Second, MaxRetries: 1, ProbeInterval: time.Second,
				EvictAfter: time.Hour, EvictInterval: time.Hour,
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *ClientConfig)
		want   error
	}{
		{name: "valid", mutate: func(c *ClientConfig) {}},
		{name: "empty dsn", mutate: func(c *ClientConfig) { c.Storage.DSN = "" }, want: ErrInvalidStorageConfigs},
		{name: "no address", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "" }, want: ErrInvalidAdapterConfigs},
		{name: "zero debounce", mutate: func(c *ClientConfig) { c.Sync.DebounceDelay = 0 }, want: ErrInvalidSyncConfigs},
		{name: "zero retries", mutate: func(c *ClientConfig) { c.Sync.MaxRetries = 0 }, want: ErrInvalidSyncConfigs},
		{name: "zero evict interval", mutate: func(c *ClientConfig) { c.Sync.EvictInterval = 0 }, want: ErrInvalidSyncConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ── GetStructuredConfig ───────────────────────────────────────────────────────

func TestGetStructuredConfig_FlagsAndValidateServer(t *testing.T) {
	cfg, err := GetStructuredConfig([]string{"-a", "localhost:9999", "-d", "postgres://db"})

	require.NoError(t, err)
	assert.Equal(t, "localhost:9999", cfg.Server.HTTPAddress)
	assert.NoError(t, cfg.ValidateServer())
}

func TestValidateServer_MissingDSN(t *testing.T) {
	cfg, err := GetStructuredConfig(nil)

	require.NoError(t, err)
	assert.ErrorIs(t, cfg.ValidateServer(), ErrInvalidStorageConfigs)
}
