package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://blockchain.info", cfg.ExplorerBaseURL)
	assert.Equal(t, 10*time.Second, cfg.ExplorerTimeout)
	assert.Equal(t, DefaultAddress, cfg.DefaultAddress)
	assert.Equal(t, "sum-outputs", cfg.AmountMode)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("EXPLORER_BASE_URL", "https://example.com")
	os.Setenv("EXPLORER_TIMEOUT", "3s")
	os.Setenv("AMOUNT_MODE", "net-result")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://example.com", cfg.ExplorerBaseURL)
	assert.Equal(t, 3*time.Second, cfg.ExplorerTimeout)
	assert.Equal(t, "net-result", cfg.AmountMode)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	os.Setenv("EXPLORER_TIMEOUT", "not-a-duration")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_InvalidAmountMode(t *testing.T) {
	os.Setenv("AMOUNT_MODE", "both")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "AmountMode")
}

func TestValidate_BadExplorerURL(t *testing.T) {
	cfg := &Config{
		ExplorerBaseURL: "ftp://example.com",
		ExplorerTimeout: time.Second,
		AmountMode:      "sum-outputs",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http(s) URL")
}

func cleanupEnv() {
	os.Unsetenv("SERVER_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("EXPLORER_BASE_URL")
	os.Unsetenv("EXPLORER_TIMEOUT")
	os.Unsetenv("DEFAULT_ADDRESS")
	os.Unsetenv("AMOUNT_MODE")
}
