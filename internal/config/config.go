package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBase        = "http://127.0.0.1:8000"
	DefaultRequestTimeout = 15 * time.Second
)

type Config struct {
	APIBase        string `yaml:"api_base"`
	TokenPath      string `yaml:"token_path"`
	TokenKey       string `yaml:"token_key"`
	RequestTimeout string `yaml:"request_timeout"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	PresetsPath    string `yaml:"presets_path"`
}

// Default is used when no config file is given. Empty token settings defer
// to the token store defaults.
func Default() Config {
	return Config{
		APIBase:   DefaultAPIBase,
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load reads a YAML config file. ${VAR} references are expanded from the
// environment before parsing; unset keys keep their defaults.
func Load(path string) (Config, error) {
	// #nosec G304 -- path is operator-provided config path.
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base must be an absolute http(s) URL: %q", c.APIBase)
	}
	if c.RequestTimeout != "" {
		d, err := time.ParseDuration(c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("request_timeout must be positive")
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Timeout returns the per-request timeout, falling back to the default for
// unset or invalid values.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return DefaultRequestTimeout
	}
	return d
}
