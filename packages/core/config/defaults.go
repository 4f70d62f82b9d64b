package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	return c.BaseURL == "" &&
		c.Timeout == 30000 &&
		c.GetFollowRedirects() &&
		c.MaxRedirects == 10 &&
		c.GetValidateSSL() &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		!c.GetVerbose() &&
		!c.GetNoColor() &&
		!c.GetBail() &&
		c.RateLimit == 0
}
