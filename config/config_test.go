/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore/errors"
)

const sampleConfig = `
region: us-east-1
endpoint: http://localhost:8000
tables:
  audit_log:
    region: eu-west-1
  sessions:
    endpoint: http://cache.local:8000
logging:
  enabled: true
  level: debug
  format: json
`

func clearEnv(t *testing.T) {
	for _, name := range []string{EnvRegion, EnvEndpoint, EnvAccessKeyID, EnvSecretAccessKey, EnvProfile} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseAndValidate(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	assert.Len(t, cfg.Tables, 2)
	assert.True(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("region: us-east-1\nregoin: typo\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Config{}, *cfg)
}

func TestForTable(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	audit := cfg.ForTable("audit_log")
	assert.Equal(t, "eu-west-1", audit.Region)
	assert.Equal(t, "http://localhost:8000", audit.Endpoint)
	assert.Nil(t, audit.Tables)

	sessions := cfg.ForTable("sessions")
	assert.Equal(t, "us-east-1", sessions.Region)
	assert.Equal(t, "http://cache.local:8000", sessions.Endpoint)

	other := cfg.ForTable("orders")
	assert.Equal(t, "us-east-1", other.Region)
	assert.Equal(t, "http://localhost:8000", other.Endpoint)

	// the receiver keeps its overrides
	assert.Len(t, cfg.Tables, 2)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing region", Config{}, "Config.Region"},
		{"bad endpoint", Config{Region: "us-east-1", Endpoint: "not a url"}, "Config.Endpoint"},
		{"bad log level", Config{Region: "us-east-1", Logging: Logging{Level: "loud"}}, "Config.Logging.Level"},
		{"bad log format", Config{Region: "us-east-1", Logging: Logging{Format: "xml"}}, "Config.Logging.Format"},
		{"half credentials", Config{Region: "us-east-1", AccessKeyID: "AKIA"}, "access_key_id"},
		{"empty override", Config{Region: "us-east-1", Tables: map[string]TableOverride{"orders": {}}}, "tables.orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRegion, "ap-southeast-2")
	t.Setenv(EnvAccessKeyID, "AKIAEXAMPLE")
	t.Setenv(EnvSecretAccessKey, "secret")

	cfg, err := Load(writeFile(t, "config.yaml", sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "ap-southeast-2", cfg.Region)
	assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
	assert.Equal(t, "AKIAEXAMPLE", cfg.AccessKeyID)
	assert.Equal(t, "secret", cfg.SecretAccessKey)
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that exist, even empty ones
	require.NoError(t, os.Unsetenv(EnvRegion))

	envFile := writeFile(t, ".env", EnvRegion+"=us-west-2\n")
	cfg, err := Load("", envFile, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)
}

func TestLoadFailures(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "endpoint: http://localhost:8000\n"))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewLogger(t *testing.T) {
	t.Run("json at level", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(Logging{Enabled: true, Level: "warn"}, &buf)

		log.Info().Msg("hidden")
		log.Warn().Str("table", "orders").Msg("shown")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "shown", entry["message"])
		assert.Equal(t, "orders", entry["table"])
		assert.Equal(t, "itemstore", entry["component"])
	})

	t.Run("default level is info", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(Logging{Enabled: true}, &buf)

		log.Debug().Msg("hidden")
		assert.Zero(t, buf.Len())
		log.Info().Msg("shown")
		assert.NotZero(t, buf.Len())
	})

	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(Logging{Enabled: false, Level: "debug"}, &buf)

		log.Error().Msg("dropped")
		assert.Zero(t, buf.Len())
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(Logging{Enabled: true, Format: "console"}, &buf)

		log.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
	})
}
