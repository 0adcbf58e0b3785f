// Package config provides configuration structures and loading logic for the
// veil redaction engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the global configuration for the engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Vault     VaultConfig     `yaml:"vault"`
	Policy    PolicyConfig    `yaml:"policy"`
	Verifier  VerifierConfig  `yaml:"verifier"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// VaultConfig holds token vault tuning.
type VaultConfig struct {
	// TTL is the lifetime of every minted entry.
	TTL time.Duration `yaml:"ttl"`
	// SweepInterval drives the background expiry sweeper.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// PolicyConfig holds policy engine settings.
type PolicyConfig struct {
	// DefaultContext is applied when a redaction call names no context.
	DefaultContext string `yaml:"default_context"`
}

// VerifierConfig holds the leak-verifier endpoint settings.
type VerifierConfig struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuditConfig holds leak-audit worker tuning.
type AuditConfig struct {
	QueueSize int `yaml:"queue_size"`
	Workers   int `yaml:"workers"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":8090"},
		Vault: VaultConfig{
			TTL:           24 * time.Hour,
			SweepInterval: time.Minute,
		},
		Policy:   PolicyConfig{DefaultContext: "general"},
		Verifier: VerifierConfig{Model: "phi3", Timeout: 30 * time.Second},
		Audit:    AuditConfig{QueueSize: 256, Workers: 1},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a file and applies environment variable
// overrides. An empty path loads defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // Config file path is controlled by admin/operator
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("VEIL_LISTEN_ADDR"); val != "" {
		cfg.Server.Address = val
	}
	if val := os.Getenv("VEIL_VAULT_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.Vault.TTL = ttl
		}
	}
	if val := os.Getenv("VEIL_DEFAULT_CONTEXT"); val != "" {
		cfg.Policy.DefaultContext = val
	}
	if val := os.Getenv("VEIL_VERIFIER_URL"); val != "" {
		cfg.Verifier.BaseURL = val
	}
	if val := os.Getenv("VEIL_VERIFIER_MODEL"); val != "" {
		cfg.Verifier.Model = val
	}
	if val := os.Getenv("VEIL_VERIFIER_TIMEOUT"); val != "" {
		if timeout, err := time.ParseDuration(val); err == nil {
			cfg.Verifier.Timeout = timeout
		}
	}
	if val := os.Getenv("VEIL_AUDIT_QUEUE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.Audit.QueueSize = size
		}
	}
	if val := os.Getenv("VEIL_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("VEIL_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}
	if val := os.Getenv("VEIL_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}

// Validate checks invariants the rest of the system relies on.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Vault.TTL < 0 {
		return fmt.Errorf("vault.ttl must not be negative")
	}
	if c.Vault.SweepInterval <= 0 {
		return fmt.Errorf("vault.sweep_interval must be positive")
	}
	if c.Audit.QueueSize <= 0 {
		return fmt.Errorf("audit.queue_size must be positive")
	}
	if c.Audit.Workers <= 0 {
		return fmt.Errorf("audit.workers must be positive")
	}
	if c.Verifier.Timeout <= 0 {
		return fmt.Errorf("verifier.timeout must be positive")
	}
	return nil
}
