// Package config handles configuration loading and management for hitchain.
//
// It provides functionality for:
//   - Loading configuration from .hitchain.yaml or hitchain.config.json files
//   - Default configuration values
//   - Merging CLI overrides on top of file settings
//   - Mapping transport settings onto http client options
package config
