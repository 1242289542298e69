//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves into a fresh temp dir, optionally holding config.yaml,
// and resets cfg for the duration of the test.
func chdirTemp(t *testing.T, configContent string) {
	t.Helper()
	tmpDir := t.TempDir()
	if configContent != "" {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(configContent), 0o644))
	}

	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	oldCfg := cfg
	cfg = nil
	t.Cleanup(func() { cfg = oldCfg })
}

func TestRootCmd_PersistentPreRunE_WithValidConfig(t *testing.T) {
	chdirTemp(t, `
api:
  base_url: https://leads.example.com/api/lead-watcher
  token: secret
log:
  level: info
  format: console
`)

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "https://leads.example.com/api/lead-watcher", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
}

func TestRootCmd_PersistentPreRunE_NoConfigFile(t *testing.T) {
	// Without config.yaml viper falls back to defaults and env.
	chdirTemp(t, "")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:8090/api/lead-watcher", cfg.API.BaseURL)
	assert.Equal(t, 8090, cfg.Stub.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestRootCmd_PersistentPreRunE_BadLogLevel(t *testing.T) {
	chdirTemp(t, `
log:
  level: NOT_A_LEVEL
  format: console
`)

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init logger")
}

func TestRootCmd_PersistentPostRun_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		rootCmd.PersistentPostRun(rootCmd, nil)
	})
}

func TestRootCmd_PersistentPreRunE_InvalidYAML(t *testing.T) {
	chdirTemp(t, "invalid: [yaml: bad")

	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	chdirTemp(t, `
api:
  timeout_secs: -1
log:
  level: info
  format: console
`)
	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))

	_, err := newClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.timeout_secs")

	_, err = newCampaignClient()
	assert.Error(t, err)
}
