// Package config handles loading, parsing, and validating taskdash configuration.
// Settings come from defaults, then an optional YAML file, then environment
// variables; the API token may finally be resolved from the OS keyring.
// file: internal/config/config.go.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/clickup"
	"github.com/dkoosis/taskdash/internal/logging"
	"gopkg.in/yaml.v3"
)

// Environment variables read by applyEnvironmentOverrides.
const (
	EnvAPIToken    = "CLICKUP_API_TOKEN"
	EnvListID      = "CLICKUP_LIST_ID"
	EnvTeamID      = "CLICKUP_TEAM_ID"
	EnvBaseURL     = "CLICKUP_BASE_URL"
	EnvLogLevel    = "TASKDASH_LOG_LEVEL"
	EnvTokenPath   = "TASKDASH_TOKEN_PATH"
	EnvConcurrency = "TASKDASH_SUMMARY_CONCURRENCY"
)

// DefaultConfigPath is used when no --config flag is given. A missing file at
// this path is not an error.
const DefaultConfigPath = "~/.config/taskdash/config.yaml"

// ClickUpConfig holds the remote API connection settings.
type ClickUpConfig struct {
	// APIToken is the personal API token. Prefer the environment or the keyring
	// over writing it into the file.
	APIToken string `yaml:"api_token"`
	ListID   string `yaml:"list_id"`
	TeamID   string `yaml:"team_id"`
	BaseURL  string `yaml:"base_url"`
	// Timeout bounds one HTTP attempt, e.g. "30s".
	Timeout time.Duration `yaml:"timeout"`
	// MaxRequests per Window for the local rate limiter.
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
	// Cooldown is the pause after a 429 response.
	Cooldown time.Duration `yaml:"cooldown"`
}

// AuthConfig contains token storage settings.
type AuthConfig struct {
	// TokenPath is the file used to store the token when the OS keyring is
	// unavailable. Supports '~' expansion.
	TokenPath string `yaml:"token_path"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SummaryConfig tunes the project summary fan-out.
type SummaryConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Config is the root configuration structure.
type Config struct {
	ClickUp ClickUpConfig `yaml:"clickup"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Summary SummaryConfig `yaml:"summary"`

	// TokenSource records where ClickUp.APIToken came from.
	TokenSource string `yaml:"-"`
}

// DefaultConfig returns a configuration populated with default values only.
func DefaultConfig() *Config {
	tokenPath := "clickup_token.json" //nolint:gosec // G101: file name, not a secret.
	if homeDir, err := os.UserHomeDir(); err == nil {
		tokenPath = filepath.Join(homeDir, ".config", "taskdash", "clickup_token.json")
	}
	return &Config{
		ClickUp: ClickUpConfig{
			BaseURL:     clickup.DefaultBaseURL,
			Timeout:     clickup.DefaultTimeout,
			MaxRequests: 90,
			Window:      time.Minute,
			Cooldown:    clickup.DefaultCooldown,
		},
		Auth:        AuthConfig{TokenPath: tokenPath},
		Logging:     LoggingConfig{Level: "info"},
		Summary:     SummaryConfig{Concurrency: 4},
		TokenSource: "default",
	}
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment. An empty path means DefaultConfigPath, which may be absent.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")
	optional := path == ""
	if optional {
		path = DefaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if _, statErr := os.Stat(expanded); statErr != nil && optional && os.IsNotExist(statErr) {
		logger.Debug("No configuration file found, using defaults and environment.", "path", expanded)
	} else {
		if err := loadFile(expanded, cfg); err != nil {
			return nil, err
		}
		logger.Debug("Configuration file loaded.", "path", expanded)
	}

	applyEnvironmentOverrides(cfg, logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads the YAML file at path over the defaults and applies
// environment overrides. The file must exist.
func LoadFromFile(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := loadFile(expanded, cfg); err != nil {
		return nil, err
	}
	applyEnvironmentOverrides(cfg, logging.GetLogger("config"))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	// #nosec G304 -- path comes from a command-line flag or the default.
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file: %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "failed to parse config file YAML: %s", path)
	}
	if cfg.ClickUp.APIToken != "" {
		cfg.TokenSource = "config file"
	}
	return nil
}

// applyEnvironmentOverrides applies overrides from environment variables, which
// take precedence over the file and the defaults.
func applyEnvironmentOverrides(cfg *Config, logger logging.Logger) {
	if token := os.Getenv(EnvAPIToken); token != "" {
		cfg.ClickUp.APIToken = token
		cfg.TokenSource = "environment variable"
	}
	logger.Debug("ClickUp API token source determined.", "source", cfg.TokenSource)

	overrides := []struct {
		env    string
		target *string
	}{
		{EnvListID, &cfg.ClickUp.ListID},
		{EnvTeamID, &cfg.ClickUp.TeamID},
		{EnvBaseURL, &cfg.ClickUp.BaseURL},
		{EnvLogLevel, &cfg.Logging.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			logger.Debug("Overriding setting from environment.", "envVar", o.env, "value", v)
			*o.target = v
		}
	}

	if tokenPath := os.Getenv(EnvTokenPath); tokenPath != "" {
		expanded, err := ExpandPath(tokenPath)
		if err != nil {
			logger.Warn("Could not expand '~' in token path env var.", "envVar", EnvTokenPath, "error", err)
			expanded = tokenPath
		}
		cfg.Auth.TokenPath = expanded
	}

	if raw := os.Getenv(EnvConcurrency); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Summary.Concurrency = n
		} else {
			logger.Warn("Invalid summary concurrency environment variable ignored.", "envVar", EnvConcurrency, "value", raw)
		}
	}
}

// Validate checks values that cannot be defaulted. Missing credentials are not
// an error here; the client reports them when it is used.
func (c *Config) Validate() error {
	var problems []string
	if c.ClickUp.BaseURL != "" {
		u, err := url.Parse(c.ClickUp.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "clickup.base_url must be an absolute URL")
		}
	}
	if c.ClickUp.Timeout < 0 || c.ClickUp.Window < 0 || c.ClickUp.Cooldown < 0 {
		problems = append(problems, "durations must not be negative")
	}
	if c.ClickUp.MaxRequests < 0 {
		problems = append(problems, "clickup.max_requests must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, "logging.level "+strconv.Quote(c.Logging.Level)+" is not a known level")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ResolveToken fills ClickUp.APIToken from store when neither the file nor the
// environment provided one. A store failure is logged and leaves the token empty.
func (c *Config) ResolveToken(store TokenStore, logger logging.Logger) {
	if c.ClickUp.APIToken != "" || store == nil {
		return
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	token, err := store.LoadToken()
	if err != nil {
		logger.Warn("Failed to load ClickUp API token from storage.", "store", store.Name(), "error", err)
		return
	}
	if token == "" {
		logger.Warn("ClickUp API token is missing (checked environment, config file and token storage).")
		return
	}
	c.ClickUp.APIToken = token
	c.TokenSource = store.Name()
	logger.Debug("ClickUp API token source determined.", "source", c.TokenSource)
}

// ClientConfig converts the settings into the client's connection config.
func (c *Config) ClientConfig() clickup.Config {
	return clickup.Config{
		APIToken:    c.ClickUp.APIToken,
		ListID:      c.ClickUp.ListID,
		TeamID:      c.ClickUp.TeamID,
		BaseURL:     c.ClickUp.BaseURL,
		Timeout:     c.ClickUp.Timeout,
		MaxRequests: c.ClickUp.MaxRequests,
		Window:      c.ClickUp.Window,
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrapf(err, "failed to get home directory to expand %q", path)
	}
	return filepath.Join(home, path[1:]), nil
}
