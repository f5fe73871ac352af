package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "moonlit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://game.local:9000
poll_interval: 5s
log_format: json
`), 0o600))
	t.Setenv("MOONLIT_POLL_INTERVAL", "750ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://game.local:9000", cfg.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MOONLIT_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MOONLIT_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"ftp url", func(c *Config) { c.BaseURL = "ftp://x" }},
		{"no host", func(c *Config) { c.BaseURL = "http://" }},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero chunk", func(c *Config) { c.CaptureChunkBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mut(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
