// Package config provides configuration loading for the ral-sponsors CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rotatingartdev/ral-sponsors/pkg/loader"
	"github.com/rotatingartdev/ral-sponsors/pkg/refresh"
)

// EnvTokenVar is the environment variable consulted for the Afdian API token
// when the config file does not carry one.
const EnvTokenVar = "RAL_AFDIAN_TOKEN"

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Mirrors configures the remote sponsors.json locations
	Mirrors MirrorsConfig `yaml:"mirrors,omitempty"`

	// FetchTimeout bounds each mirror attempt (e.g. "10s")
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`

	// RefreshInterval is how often the watch command re-fetches (e.g. "6h")
	RefreshInterval string `yaml:"refreshInterval,omitempty"`

	// Afdian holds credentials for regenerating sponsors.json from the
	// Afdian open API
	Afdian *AfdianConfig `yaml:"afdian,omitempty"`

	// OutputPath is where generated documents are written
	OutputPath string `yaml:"outputPath,omitempty"`
}

// MirrorsConfig defines the primary and fallback document URLs
type MirrorsConfig struct {
	Primary  string `yaml:"primary,omitempty"`
	Fallback string `yaml:"fallback,omitempty"`
}

// AfdianConfig holds Afdian open API credentials
type AfdianConfig struct {
	// UserID is the Afdian developer user ID
	UserID string `yaml:"userId"`

	// Token is the API token. Prefer TokenFile or the RAL_AFDIAN_TOKEN
	// environment variable over committing the token to the config file.
	Token string `yaml:"token,omitempty"`

	// TokenFile is the path to a file containing only the token
	TokenFile string `yaml:"tokenFile,omitempty"`
}

// GetToken returns the Afdian API token using the following priority:
// token file, inline token, RAL_AFDIAN_TOKEN environment variable.
func (a *AfdianConfig) GetToken() (string, error) {
	if a.TokenFile != "" {
		cleanPath := filepath.Clean(a.TokenFile)
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read token from file %s: %w", a.TokenFile, err)
		}
		return trimToken(string(data)), nil
	}

	if a.Token != "" {
		return a.Token, nil
	}

	if envToken := os.Getenv(EnvTokenVar); envToken != "" {
		return envToken, nil
	}

	return "", fmt.Errorf("no Afdian token configured: set tokenFile, token, or %s", EnvTokenVar)
}

func trimToken(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no config file is given:
// the published mirror URLs with default timeouts.
func Default() *Config {
	return &Config{
		Mirrors: MirrorsConfig{
			Primary:  loader.DefaultPrimaryURL,
			Fallback: loader.DefaultFallbackURL,
		},
	}
}

// GetPrimaryURL returns the primary mirror URL, defaulting to the published
// GitHub raw URL.
func (c *Config) GetPrimaryURL() string {
	if c.Mirrors.Primary == "" {
		return loader.DefaultPrimaryURL
	}
	return c.Mirrors.Primary
}

// GetFallbackURL returns the fallback mirror URL, defaulting to the Gitee
// mirror.
func (c *Config) GetFallbackURL() string {
	if c.Mirrors.Fallback == "" {
		return loader.DefaultFallbackURL
	}
	return c.Mirrors.Fallback
}

// GetFetchTimeout returns the parsed fetch timeout, or zero when unset so
// the loader applies its own default.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0
	}
	return d
}

// GetRefreshInterval returns the parsed refresh interval, defaulting to the
// refresh package default.
func (c *Config) GetRefreshInterval() time.Duration {
	if c.RefreshInterval == "" {
		return refresh.DefaultInterval
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return refresh.DefaultInterval
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateMirrorURL(c.Mirrors.Primary, "mirrors.primary"); err != nil {
		return err
	}
	if err := validateMirrorURL(c.Mirrors.Fallback, "mirrors.fallback"); err != nil {
		return err
	}

	if c.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
			return fmt.Errorf("fetchTimeout must be a valid duration (e.g. '10s'): %w", err)
		}
	}

	if c.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.RefreshInterval); err != nil {
			return fmt.Errorf("refreshInterval must be a valid duration (e.g. '6h'): %w", err)
		}
	}

	if c.Afdian != nil && c.Afdian.UserID == "" {
		return fmt.Errorf("afdian.userId is required when afdian is configured")
	}

	return nil
}

// validateMirrorURL checks that a configured mirror is an absolute http(s) URL.
// Empty values are allowed; the published defaults apply.
func validateMirrorURL(raw, field string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
