// ABOUTME: Configuration loading and parsing for the botadmin console
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete botadmin configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds backend connection configuration
type APIConfig struct {
	BaseURL   string  `yaml:"base_url"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second, 0 disables throttling
	RateBurst int     `yaml:"rate_burst"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// SessionConfig holds token persistence and lifecycle configuration
type SessionConfig struct {
	TokenPath string `yaml:"token_path"`

	MonitorInterval time.Duration `yaml:"-"`
	Lookahead       time.Duration `yaml:"-"`
	CacheTTL        time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	MonitorIntervalRaw string `yaml:"monitor_interval"`
	LookaheadRaw       string `yaml:"lookahead"`
	CacheTTLRaw        string `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the corresponding fields are absent.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultMonitorInterval = 30 * time.Second
	DefaultLookahead       = 5 * time.Minute
	DefaultCacheTTL        = 30 * time.Second
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.parseDurations(); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Session.TokenPath == "" {
		return fmt.Errorf("session.token_path is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration
// values, applying defaults for absent fields.
func (c *Config) parseDurations() error {
	var err error

	c.API.Timeout = DefaultTimeout
	if c.API.TimeoutRaw != "" {
		c.API.Timeout, err = time.ParseDuration(c.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", c.API.TimeoutRaw, err)
		}
	}

	c.Session.MonitorInterval = DefaultMonitorInterval
	if c.Session.MonitorIntervalRaw != "" {
		c.Session.MonitorInterval, err = time.ParseDuration(c.Session.MonitorIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing monitor_interval %q: %w", c.Session.MonitorIntervalRaw, err)
		}
	}

	c.Session.Lookahead = DefaultLookahead
	if c.Session.LookaheadRaw != "" {
		c.Session.Lookahead, err = time.ParseDuration(c.Session.LookaheadRaw)
		if err != nil {
			return fmt.Errorf("parsing lookahead %q: %w", c.Session.LookaheadRaw, err)
		}
	}

	c.Session.CacheTTL = DefaultCacheTTL
	if c.Session.CacheTTLRaw != "" {
		c.Session.CacheTTL, err = time.ParseDuration(c.Session.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing cache_ttl %q: %w", c.Session.CacheTTLRaw, err)
		}
	}

	return nil
}
