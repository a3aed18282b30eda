// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every config key when read from the environment,
// so `api.url` becomes HYPERAIDE_API_URL.
const EnvPrefix = "HYPERAIDE"

// Config holds the whole application configuration. Sections map one to one
// onto the top-level keys of config.yaml.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	API        APIConfig        `mapstructure:"api" yaml:"api"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	// Dev switches both the API and the welcome page to their local variants.
	Dev bool `mapstructure:"dev" yaml:"dev"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names used for each log level on the console.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// APIConfig describes the remote sync service.
type APIConfig struct {
	// URL is an explicit override. When empty the base URL is picked from
	// ProductionURL or DevURL.
	URL           string        `mapstructure:"url" yaml:"url"`
	ProductionURL string        `mapstructure:"production_url" yaml:"production_url"`
	DevURL        string        `mapstructure:"dev_url" yaml:"dev_url"`
	ManageURL     string        `mapstructure:"manage_url" yaml:"manage_url"`
	TokenEnv      string        `mapstructure:"token_env" yaml:"token_env"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout" yaml:"upload_timeout"`
}

// BrowserConfig controls the capture browser.
type BrowserConfig struct {
	ExecPath       string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args           []string       `mapstructure:"args" yaml:"args"`
	Viewport       map[string]int `mapstructure:"viewport" yaml:"viewport"`
	UserAgent      string         `mapstructure:"user_agent" yaml:"user_agent"`
	ProfileRoot    string         `mapstructure:"profile_root" yaml:"profile_root"`
	PollInterval   time.Duration  `mapstructure:"poll_interval" yaml:"poll_interval"`
	WelcomeTimeout time.Duration  `mapstructure:"welcome_timeout" yaml:"welcome_timeout"`
	WelcomeURL     string         `mapstructure:"welcome_url" yaml:"welcome_url"`
	DevWelcomeURL  string         `mapstructure:"dev_welcome_url" yaml:"dev_welcome_url"`
}

// ClassifierConfig holds the tables that decide which cookies count as auth.
type ClassifierConfig struct {
	Keywords         []string `mapstructure:"keywords" yaml:"keywords"`
	DenylistNames    []string `mapstructure:"denylist_names" yaml:"denylist_names"`
	DenylistPrefixes []string `mapstructure:"denylist_prefixes" yaml:"denylist_prefixes"`
	DenylistSuffixes []string `mapstructure:"denylist_suffixes" yaml:"denylist_suffixes"`
	JWTValue         bool     `mapstructure:"jwt_value" yaml:"jwt_value"`
}

// APIBaseURL resolves the base URL: explicit override, then dev, then production.
func (c *Config) APIBaseURL() string {
	if c.API.URL != "" {
		return c.API.URL
	}
	if c.Dev {
		return c.API.DevURL
	}
	return c.API.ProductionURL
}

// WelcomeURL is the first page shown in the capture browser.
func (c *Config) WelcomeURL() string {
	if c.Dev {
		return c.Browser.DevWelcomeURL
	}
	return c.Browser.WelcomeURL
}

// NewDefaultConfig creates a configuration object populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static, so this only trips on a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every known key with viper. Keys that are not
// registered here are invisible to AutomaticEnv during Unmarshal.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "hyperaide-sync")
	// No file log unless asked for; a run leaves nothing behind on disk.
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- API --
	v.SetDefault("api.url", "")
	v.SetDefault("api.production_url", "https://api.hyperaide.com")
	v.SetDefault("api.dev_url", "http://localhost:4000")
	v.SetDefault("api.manage_url", "https://app.hyperaide.com/browser-connections")
	v.SetDefault("api.token_env", "HYPERAIDE_SYNC_TOKEN")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.upload_timeout", "60s")

	// -- Browser --
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 900})
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.profile_root", "")
	v.SetDefault("browser.poll_interval", "500ms")
	v.SetDefault("browser.welcome_timeout", "10s")
	v.SetDefault("browser.welcome_url", "https://app.hyperaide.com/browser-sync/welcome")
	v.SetDefault("browser.dev_welcome_url", "http://localhost:3000/browser-sync/welcome")

	// -- Classifier --
	v.SetDefault("classifier.keywords", DefaultAuthKeywords)
	v.SetDefault("classifier.denylist_names", DefaultDenylistNames)
	v.SetDefault("classifier.denylist_prefixes", DefaultDenylistPrefixes)
	v.SetDefault("classifier.denylist_suffixes", DefaultDenylistSuffixes)
	v.SetDefault("classifier.jwt_value", true)

	v.SetDefault("dev", false)
}

// DefaultAuthKeywords are name fragments that mark a cookie as auth.
var DefaultAuthKeywords = []string{
	"session", "token", "auth", "jwt", "login", "sid",
	"csrf", "access", "refresh", "id_token", "user",
}

// DefaultDenylistNames are analytics and advertising cookies that are never auth,
// even when a keyword would match (e.g. "_uetsid" contains "sid", "_pin_unauth" contains "auth").
var DefaultDenylistNames = []string{
	"_ga", "_gid", "_gat", "_fbp", "_fbc", "_gcl_au", "_uetsid", "_uetvid",
	"_hjid", "_hjfirstseen", "ajs_user_id", "ajs_anonymous_id", "ajs_group_id",
	"mp_mixpanel", "__utma", "__utmb", "__utmc", "__utmz", "_clck", "_clsk",
	"IDE", "NID", "ANID", "test_cookie", "_pin_unauth", "_dd_s",
}

// DefaultDenylistPrefixes catch tracker families with generated suffixes.
// Each prefix is specific enough that no first-party cookie plausibly shares it.
var DefaultDenylistPrefixes = []string{
	"_ga_", "_gat_", "_hjid_", "amplitude_id", "__utm", "_pk_id.", "_pk_ses.",
	"intercom-id-", "intercom-device-id-", "optimizelyenduserid",
}

// DefaultDenylistSuffixes catch tracker families with generated prefixes,
// such as Mixpanel's "mp_<project token>_mixpanel".
var DefaultDenylistSuffixes = []string{"_mixpanel"}

// NewConfigFromViper builds a validated Config from a prepared viper instance.
// Paths that start with ~ are expanded against the user's home directory.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Documented environment names, plus CHROME_PATH as a fallback for the binary.
	_ = v.BindEnv("api.url", "HYPERAIDE_API_URL")
	_ = v.BindEnv("dev", "HYPERAIDE_DEV")
	_ = v.BindEnv("browser.exec_path", "HYPERAIDE_BROWSER", "CHROME_PATH")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	var err error
	if cfg.Logger.LogFile, err = homedir.Expand(cfg.Logger.LogFile); err != nil {
		return nil, fmt.Errorf("expanding logger.log_file: %w", err)
	}
	if cfg.Browser.ExecPath, err = homedir.Expand(cfg.Browser.ExecPath); err != nil {
		return nil, fmt.Errorf("expanding browser.exec_path: %w", err)
	}
	if cfg.Browser.ProfileRoot, err = homedir.Expand(cfg.Browser.ProfileRoot); err != nil {
		return nil, fmt.Errorf("expanding browser.profile_root: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be one of console or json, got %q", c.Logger.Format)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be a positive duration")
	}
	if c.API.UploadTimeout <= 0 {
		return fmt.Errorf("api.upload_timeout must be a positive duration")
	}
	if c.API.TokenEnv == "" {
		return fmt.Errorf("api.token_env must not be empty")
	}
	if err := validateHTTPURL("api base url", c.APIBaseURL()); err != nil {
		return err
	}
	if c.Browser.PollInterval <= 0 {
		return fmt.Errorf("browser.poll_interval must be a positive duration")
	}
	if c.Browser.WelcomeTimeout <= 0 {
		return fmt.Errorf("browser.welcome_timeout must be a positive duration")
	}
	if err := validateHTTPURL("browser welcome url", c.WelcomeURL()); err != nil {
		return err
	}
	for _, dim := range []string{"width", "height"} {
		if n, ok := c.Browser.Viewport[dim]; ok && n <= 0 {
			return fmt.Errorf("browser.viewport.%s must be a positive integer", dim)
		}
	}
	if len(c.Classifier.Keywords) == 0 {
		return fmt.Errorf("classifier.keywords must contain at least one entry")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q is not a valid URL: %w", name, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q must be an absolute http(s) URL", name, raw)
	}
	return nil
}
