package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKeyHash(t *testing.T) {
	t.Setenv("API_KEY_HASH", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY_HASH")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY_HASH", "$2a$10$hash")
	for _, key := range []string{"PORT", "ENVIRONMENT", "DB_PORT", "DB_SSLMODE", "MARKETPLACE_SETTING_NAME", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "default", cfg.Marketplace.SettingName)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_KEY_HASH", "$2a$10$hash")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("MARKETPLACE_SETTING_NAME", "eu-account")
	t.Setenv("MARKETPLACE_ENDPOINT", "http://localhost:4000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "eu-account", cfg.Marketplace.SettingName)
	assert.Equal(t, "http://localhost:4000", cfg.Marketplace.Endpoint)
}
