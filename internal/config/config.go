package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "MOONLIT_"

type Config struct {
	BaseURL        string        `yaml:"base_url"         env:"BASE_URL"`
	PollInterval   time.Duration `yaml:"poll_interval"    env:"POLL_INTERVAL"`
	RequestTimeout time.Duration `yaml:"request_timeout"  env:"REQUEST_TIMEOUT"`
	LogLevel       string        `yaml:"log_level"        env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format"       env:"LOG_FORMAT"`

	// MaxUploadBytes mirrors the service's upload limit so oversized clips
	// fail before they are sent.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" env:"MAX_UPLOAD_BYTES"`

	// CaptureSource is the WAV file the file-backed microphone plays from.
	CaptureSource     string `yaml:"capture_source"      env:"CAPTURE_SOURCE"`
	CaptureChunkBytes int    `yaml:"capture_chunk_bytes" env:"CAPTURE_CHUNK_BYTES"`
}

func Default() Config {
	return Config{
		BaseURL:           "http://localhost:8000",
		PollInterval:      3 * time.Second,
		RequestTimeout:    15 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxUploadBytes:    5 * 1024 * 1024,
		CaptureChunkBytes: 4096,
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and finally MOONLIT_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.CaptureChunkBytes <= 0 {
		return fmt.Errorf("capture_chunk_bytes must be positive, got %d", c.CaptureChunkBytes)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
