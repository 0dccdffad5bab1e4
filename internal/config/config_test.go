package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/composer/internal/commands/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	require.Equal(t, 1000, cfg.Processor.QueueCapacity)
	require.Equal(t, 100*time.Millisecond, cfg.Processor.SlowCommandThreshold)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, tracing.DefaultServiceName, cfg.Tracing.ServiceName)
	require.Equal(t, 10*time.Minute, cfg.Cache.Expiration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative queue", func(c *Config) { c.Processor.QueueCapacity = -1 }},
		{"negative threshold", func(c *Config) { c.Processor.SlowCommandThreshold = -time.Second }},
		{"negative cache", func(c *Config) { c.Cache.Expiration = -time.Second }},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "zipkin" }},
		{"file path", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.FilePath = ""
		}},
		{"otlp endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
			c.Tracing.OTLPEndpoint = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			require.ErrorIs(t, Validate(cfg), ErrInvalidConfig)
		})
	}

	cfg := Defaults()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"
	cfg.Tracing.FilePath = ""
	require.NoError(t, Validate(cfg))
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Composer Configuration")
	require.Contains(t, string(data), "slow_command_threshold: 100ms")

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, Defaults(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not be left behind")
}
