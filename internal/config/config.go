// Package config provides configuration types and defaults for composer.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/composer/internal/commands/processor"
	"github.com/zjrosen/composer/internal/commands/tracing"
	"github.com/zjrosen/composer/internal/log"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration options for composer.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Processor ProcessorConfig `mapstructure:"processor" yaml:"processor"`
	Tracing   tracing.Config  `mapstructure:"tracing" yaml:"tracing"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
}

// DatabaseConfig locates the SQLite metadata and snapshot store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
	Level string `mapstructure:"level" yaml:"level"` // debug, info (default), warn, error
}

// ProcessorConfig tunes the composition command processor.
type ProcessorConfig struct {
	QueueCapacity        int           `mapstructure:"queue_capacity" yaml:"queue_capacity"`
	SlowCommandThreshold time.Duration `mapstructure:"slow_command_threshold" yaml:"slow_command_threshold"`
}

// CacheConfig tunes the read-through cache in front of the metadata store.
type CacheConfig struct {
	Expiration      time.Duration `mapstructure:"expiration" yaml:"expiration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// Dir returns ~/.config/composer, or "" if the home directory is unavailable.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "composer")
}

func inDir(parts ...string) string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(append([]string{dir}, parts...)...)
}

// DefaultConfigPath returns ~/.config/composer/config.yaml.
func DefaultConfigPath() string { return inDir("config.yaml") }

// DefaultDatabasePath returns ~/.config/composer/composer.db.
func DefaultDatabasePath() string { return inDir("composer.db") }

// DefaultLogPath returns ~/.config/composer/debug.log.
func DefaultLogPath() string { return inDir("debug.log") }

// DefaultTracesFilePath returns ~/.config/composer/traces/traces.jsonl.
func DefaultTracesFilePath() string { return inDir("traces", "traces.jsonl") }

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Log: LogConfig{
			Path:  DefaultLogPath(),
			Level: "info",
		},
		Processor: ProcessorConfig{
			QueueCapacity:        processor.DefaultQueueCapacity,
			SlowCommandThreshold: processor.DefaultSlowCommandThreshold,
		},
		Tracing: tc,
		Cache: CacheConfig{
			Expiration:      10 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
	}
}

// Validate checks cfg for errors. Empty values fall back to defaults and are accepted.
func Validate(cfg Config) error {
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	if cfg.Processor.QueueCapacity < 0 {
		return fmt.Errorf("%w: processor.queue_capacity must not be negative, got %d", ErrInvalidConfig, cfg.Processor.QueueCapacity)
	}
	if cfg.Processor.SlowCommandThreshold < 0 {
		return fmt.Errorf("%w: processor.slow_command_threshold must not be negative", ErrInvalidConfig)
	}
	if cfg.Cache.Expiration < 0 || cfg.Cache.CleanupInterval < 0 {
		return fmt.Errorf("%w: cache durations must not be negative", ErrInvalidConfig)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("%w: tracing.sample_rate must be between 0.0 and 1.0, got %v", ErrInvalidConfig, tc.SampleRate)
	}
	switch tc.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("%w: tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", ErrInvalidConfig, tc.Exporter)
	}
	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("%w: tracing.file_path is required when exporter is \"file\"", ErrInvalidConfig)
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("%w: tracing.otlp_endpoint is required when exporter is \"otlp\"", ErrInvalidConfig)
		}
	}
	return nil
}

const header = `# Composer Configuration
#
# database.path      SQLite file holding scanned types, parts, groups and snapshots
# log.debug          write a debug log to log.path (also enabled by --debug)
# processor          command queue capacity and slow-command warning threshold
# tracing            OpenTelemetry export: none, file (JSONL), stdout or otlp
# cache              read-through cache in front of the metadata store

`

// Render encodes cfg as commented YAML.
func Render(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)
	data, err := Render(Defaults())
	if err != nil {
		return err
	}
	return writeAtomic(configPath, data)
}

// writeAtomic writes to a temp file in the target directory and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".composer.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	log.Info(log.CatConfig, "Created default config", "path", path)
	return nil
}
