// File: internal/config/config_test.go
package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "hyperaide-sync", cfg.Logger.ServiceName)
	assert.Empty(t, cfg.Logger.LogFile, "no log file is written unless configured")
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 60*time.Second, cfg.API.UploadTimeout)
	assert.Equal(t, "HYPERAIDE_SYNC_TOKEN", cfg.API.TokenEnv)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Browser.WelcomeTimeout)
	assert.Equal(t, 1280, cfg.Browser.Viewport["width"])
	assert.True(t, cfg.Classifier.JWTValue)
	assert.Contains(t, cfg.Classifier.Keywords, "session")
	assert.Contains(t, cfg.Classifier.DenylistNames, "_ga")
	assert.False(t, cfg.Dev)
	assert.NoError(t, cfg.Validate(), "defaults must always validate")
}

func TestURLResolution(t *testing.T) {
	t.Run("production by default", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.Equal(t, "https://api.hyperaide.com", cfg.APIBaseURL())
		assert.Equal(t, "https://app.hyperaide.com/browser-sync/welcome", cfg.WelcomeURL())
	})

	t.Run("dev mode", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Dev = true
		assert.Equal(t, "http://localhost:4000", cfg.APIBaseURL())
		assert.Equal(t, "http://localhost:3000/browser-sync/welcome", cfg.WelcomeURL())
	})

	t.Run("explicit override beats dev", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Dev = true
		cfg.API.URL = "https://staging.example.com"
		assert.Equal(t, "https://staging.example.com", cfg.APIBaseURL())
		// The welcome page still follows the dev switch.
		assert.Equal(t, "http://localhost:3000/browser-sync/welcome", cfg.WelcomeURL())
	})
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format must be one of console or json"},
		{"zero api timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout must be a positive duration"},
		{"negative upload timeout", func(c *Config) { c.API.UploadTimeout = -time.Second }, "api.upload_timeout must be a positive duration"},
		{"empty token env", func(c *Config) { c.API.TokenEnv = "" }, "api.token_env must not be empty"},
		{"relative api url", func(c *Config) { c.API.URL = "api.example.com" }, "must be an absolute http(s) URL"},
		{"ftp api url", func(c *Config) { c.API.URL = "ftp://api.example.com" }, "must be an absolute http(s) URL"},
		{"zero poll interval", func(c *Config) { c.Browser.PollInterval = 0 }, "browser.poll_interval must be a positive duration"},
		{"zero welcome timeout", func(c *Config) { c.Browser.WelcomeTimeout = 0 }, "browser.welcome_timeout must be a positive duration"},
		{"negative viewport", func(c *Config) { c.Browser.Viewport = map[string]int{"width": -1} }, "browser.viewport.width must be a positive integer"},
		{"no keywords", func(c *Config) { c.Classifier.Keywords = nil }, "classifier.keywords must contain at least one entry"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Successful Load from YAML", func(t *testing.T) {
		yamlBytes := []byte(`
api:
  url: "https://staging.example.com"
  upload_timeout: 2m
browser:
  poll_interval: 250ms
  args:
    - "lang=en-US"
classifier:
  keywords: ["sess", "auth"]
  jwt_value: false
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlBytes)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "https://staging.example.com", cfg.APIBaseURL())
		assert.Equal(t, 2*time.Minute, cfg.API.UploadTimeout)
		assert.Equal(t, 250*time.Millisecond, cfg.Browser.PollInterval)
		assert.Equal(t, []string{"lang=en-US"}, cfg.Browser.Args)
		assert.Equal(t, []string{"sess", "auth"}, cfg.Classifier.Keywords)
		assert.False(t, cfg.Classifier.JWTValue)
		// Untouched keys keep their defaults.
		assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	})

	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("api.timeout", "0s")

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "api.timeout must be a positive duration")
	})

	t.Run("Environment Variable Binding", func(t *testing.T) {
		t.Setenv("HYPERAIDE_API_URL", "http://127.0.0.1:9999")
		t.Setenv("HYPERAIDE_DEV", "1")
		t.Setenv("CHROME_PATH", "/opt/chrome/chrome")

		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.True(t, cfg.Dev)
		assert.Equal(t, "http://127.0.0.1:9999", cfg.APIBaseURL())
		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ExecPath)
	})

	t.Run("Home Directory Expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		require.NoError(t, err)

		v := viper.New()
		SetDefaults(v)
		v.Set("logger.log_file", "~/.hyperaide-sync/logs/sync.log")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".hyperaide-sync", "logs", "sync.log"), cfg.Logger.LogFile)
	})

	t.Run("Log File From Environment", func(t *testing.T) {
		t.Setenv("HYPERAIDE_LOGGER_LOG_FILE", "/var/tmp/hyperaide-sync.log")

		v := viper.New()
		SetDefaults(v)
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "/var/tmp/hyperaide-sync.log", cfg.Logger.LogFile)
	})
}
