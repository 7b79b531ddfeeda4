// Package config provides configuration structures and loading logic for the
// diffusion coefficient service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_diffusion_coefficient/internal/adapters/logger"
	"github.com/baditaflorin/go_diffusion_coefficient/internal/core/domain"
)

// Config holds the global configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sweep     SweepConfig     `yaml:"sweep"`

	// Parameters replaces the built-in correlation constants when set. It is
	// read once at start-up.
	Parameters *domain.Parameters `yaml:"parameters,omitempty"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxRequestSize int           `yaml:"max_request_size"`
	// 0 means the fasthttp default.
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	// Empty means stdout.
	File string `yaml:"file"`
}

// RateLimitConfig configures the request token bucket. A zero rate
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SweepConfig bounds composition sweeps.
type SweepConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxSteps    int `yaml:"max_steps"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":5000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxRequestSize: 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  true,
		},
		RateLimit: RateLimitConfig{
			Burst: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Sweep: SweepConfig{
			MaxSteps: 10000,
		},
	}
}

// Load reads configuration from a file and applies environment variable
// overrides. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by the operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("DIFFUSION_ADDR"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("DIFFUSION_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("DIFFUSION_LOG_FILE"); val != "" {
		cfg.Logging.File = val
	}
	if val := os.Getenv("DIFFUSION_LOG_JSON"); val != "" {
		cfg.Logging.JSON = val == "true"
	}
	if val := os.Getenv("DIFFUSION_METRICS_ENABLED"); val != "" {
		cfg.Metrics.Enabled = val == "true"
	}
	if val := os.Getenv("DIFFUSION_RATE_LIMIT_RPS"); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("DIFFUSION_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RequestsPerSecond = rps
	}
	if val := os.Getenv("DIFFUSION_RATE_LIMIT_BURST"); val != "" {
		burst, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("DIFFUSION_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}
	return nil
}

// EffectiveParameters returns the configured parameter set, or the built-in
// one when none is configured.
func (c *Config) EffectiveParameters() domain.Parameters {
	if c.Parameters != nil {
		return *c.Parameters
	}
	return domain.DefaultParameters()
}

// Validate performs validation of the entire configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration: %w", err)
	}
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep configuration: %w", err)
	}
	if c.Parameters != nil {
		if err := c.Parameters.Validate(); err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
	}
	return nil
}

// Validate checks the server settings.
func (s ServerConfig) Validate() error {
	if s.Address == "" {
		return fmt.Errorf("address is required")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if s.MaxRequestSize <= 0 {
		return fmt.Errorf("max_request_size must be greater than 0")
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	return nil
}

// Validate checks the logging settings.
func (l LoggingConfig) Validate() error {
	_, err := logger.ParseLevel(l.Level)
	return err
}

// Validate checks the rate limit settings.
func (r RateLimitConfig) Validate() error {
	if r.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if r.RequestsPerSecond > 0 && r.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// Validate checks the sweep settings.
func (s SweepConfig) Validate() error {
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if s.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1")
	}
	return nil
}
