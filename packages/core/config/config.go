package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"gopkg.in/yaml.v3"
)

// Config represents the hitchain configuration
type Config struct {
	BaseURL         string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	Timeout         int               `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	Verbose         *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Bail            *bool             `json:"bail,omitempty" yaml:"bail,omitempty"`
	RateLimit       float64           `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // steps per second, 0 = unlimited
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// TimeoutDuration converts the millisecond timeout to a time.Duration
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ClientOptions maps the transport settings onto http client options
func (c *Config) ClientOptions() []http.ClientOption {
	opts := []http.ClientOption{
		http.WithFollowRedirects(c.GetFollowRedirects()),
		http.WithValidateSSL(c.GetValidateSSL()),
	}
	if c.Timeout > 0 {
		opts = append(opts, http.WithTimeout(c.TimeoutDuration()))
	}
	if c.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(c.MaxRedirects))
	}
	if c.Proxy != "" {
		opts = append(opts, http.WithProxy(c.Proxy))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, http.WithDefaultHeaders(c.Headers))
	}
	return opts
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".hitchain.yaml",
	".hitchain.yml",
	"hitchain.config.json",
	".hitchainrc",
	".hitchainrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. YAML is
// chosen by extension, anything else is read as JSON.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}

	if len(c.Headers) > 0 || len(other.Headers) > 0 {
		result.Headers = make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			result.Headers[k] = v
		}
		for k, v := range other.Headers {
			result.Headers[k] = v
		}
	}

	return &result
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
