package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rennerdo30/proxyconf/internal/logging"
	"github.com/rennerdo30/proxyconf/internal/ratelimit"
	"github.com/rennerdo30/proxyconf/internal/settings"
	"github.com/rennerdo30/proxyconf/internal/util"
)

// Config is the proxyconf application configuration.
type Config struct {
	Settings SettingsConfig `yaml:"settings" json:"settings"`
	Logging  logging.Config `yaml:"logging" json:"logging"`
	API      APIConfig      `yaml:"api" json:"api"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Publish  PublishConfig  `yaml:"publish" json:"publish"`
}

// SettingsConfig locates the persistent proxy settings.
type SettingsConfig struct {
	Path      string   `yaml:"path" json:"path"`
	SaveDelay Duration `yaml:"save_delay" json:"save_delay"`
}

// APIConfig contains REST API settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen"`
	Token   string `yaml:"token,omitempty" json:"token,omitempty"`

	// TokenHash is a bcrypt hash of the token ("proxyconf config
	// hash-token"). It takes the place of Token.
	TokenHash string `yaml:"token_hash,omitempty" json:"token_hash,omitempty"`

	// RateLimit applies to requests that change the configuration.
	RateLimit ratelimit.Config `yaml:"rate_limit" json:"rate_limit"`
}

// MetricsConfig contains Prometheus endpoint settings. The endpoint is
// served by the API listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// PublishConfig selects where the active proxy is advertised.
type PublishConfig struct {
	ProcessEnv  bool `yaml:"process_env" json:"process_env"`
	SystemProxy bool `yaml:"system_proxy" json:"system_proxy"`
}

// DefaultSettingsPath returns the per-user settings file location.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(dir, "proxyconf", "settings.yaml")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Settings: SettingsConfig{
			Path:      DefaultSettingsPath(),
			SaveDelay: Duration(settings.DefaultSaveDelay),
		},
		Logging: logging.DefaultConfig(),
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:7390",
			RateLimit: ratelimit.Config{
				RequestsPerSecond: 5,
				Burst:             10,
			},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
		Publish: PublishConfig{
			ProcessEnv:  true,
			SystemProxy: false,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Settings.Path == "" {
		return fmt.Errorf("%w: settings path is required", util.ErrInvalidConfig)
	}
	if c.Settings.SaveDelay < 0 {
		return fmt.Errorf("%w: settings save_delay must be non-negative", util.ErrInvalidConfig)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	if c.API.Enabled {
		if _, _, err := net.SplitHostPort(c.API.Listen); err != nil {
			return fmt.Errorf("%w: api listen address must be in host:port format: %v", util.ErrInvalidConfig, err)
		}
	}

	if c.API.Token != "" && c.API.TokenHash != "" {
		return fmt.Errorf("%w: set either api token or token_hash, not both", util.ErrInvalidConfig)
	}
	if c.API.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(c.API.TokenHash)); err != nil {
			return fmt.Errorf("%w: api token_hash is not a bcrypt hash: %v", util.ErrInvalidConfig, err)
		}
	}

	if c.API.RateLimit.RequestsPerSecond < 0 || c.API.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: api rate_limit values must be non-negative", util.ErrInvalidConfig)
	}

	if c.Metrics.Enabled {
		if !c.API.Enabled {
			return fmt.Errorf("%w: metrics require the api to be enabled", util.ErrInvalidConfig)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") || strings.HasPrefix(c.Metrics.Path, "/api/") {
			return fmt.Errorf("%w: metrics path must start with / and not shadow /api/: %q", util.ErrInvalidConfig, c.Metrics.Path)
		}
	}

	return nil
}
