// Package config loads calorilog settings.
//
// Values come from an optional YAML file, then CALORILOG_* environment
// variables, then built-in defaults. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the complete calorilog configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Images    ImagesConfig    `koanf:"images"`
	AI        AIConfig        `koanf:"ai"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds the local view server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	Backend string `koanf:"backend"` // file, sqlite, or memory
	Path    string `koanf:"path"`
}

// ImagesConfig selects where meal photo previews are kept.
type ImagesConfig struct {
	Backend       string `koanf:"backend"` // file or s3
	Dir           string `koanf:"dir"`
	Bucket        string `koanf:"bucket"`
	Region        string `koanf:"region"`
	Prefix        string `koanf:"prefix"`
	PublicBaseURL string `koanf:"public_base_url"`
}

// AIConfig configures the nutrition model.
type AIConfig struct {
	Provider string   `koanf:"provider"` // gemini or openai
	Model    string   `koanf:"model"`
	BaseURL  string   `koanf:"base_url"`
	Timeout  Duration `koanf:"timeout"`
	// APIKey seeds the stored credential when none is stored yet.
	APIKey    Secret  `koanf:"api_key"`
	RateLimit float64 `koanf:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `koanf:"burst"`
}

// LoggingConfig is the subset of logging settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	OTEL   bool   `koanf:"otel"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool     `koanf:"enabled"`
	Endpoint     string   `koanf:"endpoint"`
	Protocol     string   `koanf:"protocol"` // grpc or http/protobuf
	Insecure     bool     `koanf:"insecure"`
	ServiceName  string   `koanf:"service_name"`
	SampleRate   float64  `koanf:"sample_rate"`
	MetricPeriod Duration `koanf:"metric_period"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	switch c.Store.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("store.backend must be file, sqlite, or memory, got %q", c.Store.Backend)
	}

	switch c.Images.Backend {
	case "file":
	case "s3":
		if c.Images.Bucket == "" {
			return errors.New("images.bucket is required for the s3 backend")
		}
		if c.Images.PublicBaseURL != "" {
			if _, err := url.ParseRequestURI(c.Images.PublicBaseURL); err != nil {
				return fmt.Errorf("invalid images.public_base_url: %w", err)
			}
		}
	default:
		return fmt.Errorf("images.backend must be file or s3, got %q", c.Images.Backend)
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("ai.provider must be gemini or openai, got %q", c.AI.Provider)
	}
	if c.AI.Timeout.Duration() <= 0 {
		return errors.New("ai.timeout must be positive")
	}
	if c.AI.RateLimit < 0 {
		return errors.New("ai.rate_limit cannot be negative")
	}
	if c.AI.RateLimit > 0 && c.AI.Burst < 1 {
		return errors.New("ai.burst must be at least 1 when rate_limit is set")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return errors.New("telemetry.endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			return fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got %v", c.Telemetry.SampleRate)
		}
	}
	return nil
}

// applyDefaults fills every unset field.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "file"
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case "file":
			cfg.Store.Path = filepath.Join(Dir(), "store")
		case "sqlite":
			cfg.Store.Path = filepath.Join(Dir(), "calorilog.db")
		}
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if cfg.Images.Backend == "" {
		cfg.Images.Backend = "file"
	}
	if cfg.Images.Dir == "" {
		cfg.Images.Dir = filepath.Join(Dir(), "images")
	}
	cfg.Images.Dir = expandHome(cfg.Images.Dir)
	if cfg.Images.Prefix == "" {
		cfg.Images.Prefix = "meal-images"
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "gemini"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = Duration(60 * time.Second)
	}
	if cfg.AI.RateLimit > 0 && cfg.AI.Burst == 0 {
		cfg.AI.Burst = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "calorilog"
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = 1
	}
	if cfg.Telemetry.MetricPeriod == 0 {
		cfg.Telemetry.MetricPeriod = Duration(15 * time.Second)
	}
}

// Dir returns the calorilog config directory, ~/.config/calorilog.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "calorilog")
	}
	return filepath.Join(home, ".config", "calorilog")
}

// EnsureDir creates the config directory with 0700 permissions.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", Dir(), err)
	}
	return nil
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}
