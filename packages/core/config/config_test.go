package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.IsDefault())
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetVerbose())
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Len(t, cfg.ClientOptions(), 4)
}

func TestGetters_NilDefaults(t *testing.T) {
	cfg := &Config{}

	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetBail())
	assert.False(t, cfg.GetNoColor())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".hitchain.yaml")
	content := `baseUrl: http://localhost:8080
timeout: 5000
validateSSL: false
bail: true
rateLimit: 2.5
headers:
  Accept: application/json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetFollowRedirects(), "unset keys keep defaults")
	assert.True(t, cfg.GetBail())
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, map[string]string{"Accept": "application/json"}, cfg.Headers)
}

func TestFindAndLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"baseUrl": "https://api.example.com", "verbose": true}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hitchain.config.json"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.True(t, cfg.GetVerbose())
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitchain.config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "application/json", "X-Env": "dev"}

	merged := base.Merge(&Config{
		BaseURL:     "http://override",
		Timeout:     1000,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"X-Env": "ci"},
	})

	assert.Equal(t, "http://override", merged.BaseURL)
	assert.Equal(t, 1000, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Env": "ci"}, merged.Headers)
	assert.Equal(t, "dev", base.Headers["X-Env"], "merge does not mutate the receiver")
}

func TestMerge_Nil(t *testing.T) {
	base := DefaultConfig()
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.BaseURL = "http://saved"

			require.NoError(t, cfg.SaveConfig(path))
			loaded, err := LoadConfig(path)

			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}
