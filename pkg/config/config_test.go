package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8090", cfg.Server.Address)
	assert.Equal(t, 24*time.Hour, cfg.Vault.TTL)
	assert.Equal(t, time.Minute, cfg.Vault.SweepInterval)
	assert.Equal(t, "general", cfg.Policy.DefaultContext)
	assert.Equal(t, "phi3", cfg.Verifier.Model)
	assert.Equal(t, 256, cfg.Audit.QueueSize)
	assert.Equal(t, 1, cfg.Audit.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Address, cfg.Server.Address)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/veil.yaml")
	require.Error(t, err)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")

	content := `
server:
  address: ":9999"
vault:
  ttl: 1h
  sweep_interval: 30s
policy:
  default_context: healthcare
verifier:
  base_url: http://ollama:11434/v1
  model: llama3
  timeout: 10s
audit:
  queue_size: 64
  workers: 2
logging:
  level: debug
  pretty: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, time.Hour, cfg.Vault.TTL)
	assert.Equal(t, 30*time.Second, cfg.Vault.SweepInterval)
	assert.Equal(t, "healthcare", cfg.Policy.DefaultContext)
	assert.Equal(t, "http://ollama:11434/v1", cfg.Verifier.BaseURL)
	assert.Equal(t, "llama3", cfg.Verifier.Model)
	assert.Equal(t, 10*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, 64, cfg.Audit.QueueSize)
	assert.Equal(t, 2, cfg.Audit.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":7000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, 24*time.Hour, cfg.Vault.TTL, "unset sections keep defaults")
	assert.Equal(t, "general", cfg.Policy.DefaultContext)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VEIL_LISTEN_ADDR", ":8888")
	t.Setenv("VEIL_VAULT_TTL", "2h")
	t.Setenv("VEIL_DEFAULT_CONTEXT", "finance")
	t.Setenv("VEIL_VERIFIER_URL", "http://localhost:11434/v1")
	t.Setenv("VEIL_VERIFIER_MODEL", "mistral")
	t.Setenv("VEIL_VERIFIER_TIMEOUT", "5s")
	t.Setenv("VEIL_AUDIT_QUEUE_SIZE", "32")
	t.Setenv("VEIL_OTLP_ENDPOINT", "otel-collector:4317")
	t.Setenv("VEIL_OTLP_INSECURE", "true")
	t.Setenv("VEIL_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8888", cfg.Server.Address)
	assert.Equal(t, 2*time.Hour, cfg.Vault.TTL)
	assert.Equal(t, "finance", cfg.Policy.DefaultContext)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Verifier.BaseURL)
	assert.Equal(t, "mistral", cfg.Verifier.Model)
	assert.Equal(t, 5*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, 32, cfg.Audit.QueueSize)
	assert.Equal(t, "otel-collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veil.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":7000\"\n"), 0o600))

	t.Setenv("VEIL_LISTEN_ADDR", ":8888")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8888", cfg.Server.Address)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"negative ttl", func(c *Config) { c.Vault.TTL = -time.Second }},
		{"zero sweep interval", func(c *Config) { c.Vault.SweepInterval = 0 }},
		{"zero queue size", func(c *Config) { c.Audit.QueueSize = 0 }},
		{"zero workers", func(c *Config) { c.Audit.Workers = 0 }},
		{"zero verifier timeout", func(c *Config) { c.Verifier.Timeout = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
