// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetAddress_Set(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		want        string
	}{
		{name: "localhost", input: "localhost:8080", want: "localhost:8080"},
		{name: "ip", input: "127.0.0.1:9090", want: "127.0.0.1:9090"},
		{name: "any interface", input: ":8080", want: ":8080"},
		{name: "missing port", input: "localhost", expectError: true},
		{name: "port not a number", input: "localhost:http", expectError: true},
		{name: "port out of range", input: "localhost:70000", expectError: true},
		{name: "bad ip", input: "999.1.1.1:80", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var addr NetAddress
			err := addr.Set(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
		})
	}
}

func TestNetAddress_String_Empty(t *testing.T) {
	assert.Equal(t, "", (&NetAddress{}).String())
}

func TestParseFlags(t *testing.T) {
	cfg, err := ParseFlags([]string{
		"-a", "localhost:9000",
		"-d", "postgres://localhost/docs",
		"-config", "/etc/docsync.json",
		"-request-timeout", "45s",
	})

	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Server.HTTPAddress)
	assert.Equal(t, "postgres://localhost/docs", cfg.Storage.DB.DSN)
	assert.Equal(t, "/etc/docsync.json", cfg.JSONFilePath)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, err := ParseFlags([]string{"-unknown"})
	assert.Error(t, err)
}
