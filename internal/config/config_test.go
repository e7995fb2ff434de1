// internal/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvAPIToken, EnvListID, EnvTeamID, EnvBaseURL, EnvLogLevel, EnvTokenPath, EnvConcurrency} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
clickup:
  api_token: "pk_file_token"
  list_id: "901"
  team_id: "777"
  timeout: 10s
  max_requests: 50
  window: 30s
auth:
  token_path: "/tmp/taskdash/token.json"
logging:
  level: debug
summary:
  concurrency: 8
`

func TestLoadFromFile_ValidConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "pk_file_token", cfg.ClickUp.APIToken)
	assert.Equal(t, "config file", cfg.TokenSource)
	assert.Equal(t, "901", cfg.ClickUp.ListID)
	assert.Equal(t, "777", cfg.ClickUp.TeamID)
	assert.Equal(t, 10*time.Second, cfg.ClickUp.Timeout)
	assert.Equal(t, 50, cfg.ClickUp.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.ClickUp.Window)
	assert.Equal(t, "/tmp/taskdash/token.json", cfg.Auth.TokenPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Summary.Concurrency)

	// Unset keys keep their defaults.
	assert.Equal(t, clickup.DefaultBaseURL, cfg.ClickUp.BaseURL)
	assert.Equal(t, clickup.DefaultCooldown, cfg.ClickUp.Cooldown)
}

func TestLoadFromFile_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIToken, "pk_env_token")
	t.Setenv(EnvListID, "902")
	t.Setenv(EnvBaseURL, "http://localhost:9999/api/v2")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvConcurrency, "2")

	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "pk_env_token", cfg.ClickUp.APIToken)
	assert.Equal(t, "environment variable", cfg.TokenSource)
	assert.Equal(t, "902", cfg.ClickUp.ListID)
	assert.Equal(t, "777", cfg.ClickUp.TeamID, "Settings without an env override come from the file.")
	assert.Equal(t, "http://localhost:9999/api/v2", cfg.ClickUp.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Summary.Concurrency)
}

func TestLoadFromFile_InvalidConcurrencyIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConcurrency, "many")

	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Summary.Concurrency)
}

func TestLoadFromFile_Errors(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"malformed yaml":   "clickup: [unclosed",
		"relative url":     "clickup:\n  base_url: api.clickup.com\n",
		"negative window":  "clickup:\n  window: -5s\n",
		"unknown loglevel": "logging:\n  level: verbose\n",
		"negative budget":  "clickup:\n  max_requests: -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoad_DefaultPathMayBeAbsent(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvTeamID, "777")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "777", cfg.ClickUp.TeamID)
	assert.Equal(t, "default", cfg.TokenSource)
	assert.Equal(t, 90, cfg.ClickUp.MaxRequests)
	assert.Equal(t, time.Minute, cfg.ClickUp.Window)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/test/path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "test/path"), got)

	got, err = ExpandPath("/tmp/test/path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test/path", got)
}

func TestClientConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromFile(writeConfig(t, validConfig))
	require.NoError(t, err)

	cc := cfg.ClientConfig()
	assert.Equal(t, clickup.Config{
		APIToken:    "pk_file_token",
		ListID:      "901",
		TeamID:      "777",
		BaseURL:     clickup.DefaultBaseURL,
		Timeout:     10 * time.Second,
		MaxRequests: 50,
		Window:      30 * time.Second,
	}, cc)
}
