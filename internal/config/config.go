// ABOUTME: Configuration loading and parsing for phantom-gateway
// ABOUTME: Supports YAML files with environment variable expansion plus env overrides

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the public PhantomBuster v2 API endpoint.
const DefaultBaseURL = "https://api.phantombuster.com/api/v2"

// defaultHTTPAddr is the listen address used when neither the config file
// nor PORT specifies one.
const defaultHTTPAddr = ":3000"

// Config represents the complete phantom-gateway configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	PhantomBuster PhantomBusterConfig `yaml:"phantombuster"`
	Tailscale     TailscaleConfig     `yaml:"tailscale"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// PhantomBusterConfig holds upstream API configuration.
//
// APIKey is resolved and checked at startup, but outbound calls always use
// the per-request key supplied by the caller, never this value.
// TODO: confirm with product whether the configured key should also serve
// as a fallback for outbound calls; today it is a startup check only.
type PhantomBusterConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// TailscaleConfig holds optional tsnet listener configuration.
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	AuthKey   string `yaml:"auth_key"`
	StateDir  string `yaml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral"`
	Funnel    bool   `yaml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from an optional YAML file at the given path and
// from the environment. Environment variables in the format ${VAR_NAME} are
// expanded inside the file; direct environment variables override file
// values. A missing file is not an error; the environment alone can carry
// the full configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		case os.IsNotExist(err):
			// Environment-only configuration.
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides overlays environment variables on top of file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHANTOMBUSTER_API_KEY"); v != "" {
		cfg.PhantomBuster.APIKey = v
	}
	if v := os.Getenv("PHANTOMBUSTER_API_URL"); v != "" {
		cfg.PhantomBuster.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
}

// applyDefaults fills in defaults for optional values.
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = defaultHTTPAddr
	}
	if cfg.PhantomBuster.BaseURL == "" {
		cfg.PhantomBuster.BaseURL = DefaultBaseURL
	}
	cfg.PhantomBuster.BaseURL = strings.TrimRight(cfg.PhantomBuster.BaseURL, "/")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PhantomBuster.APIKey) == "" {
		return fmt.Errorf("phantombuster.api_key is required (set PHANTOMBUSTER_API_KEY)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	return nil
}
