// Package config provides configuration management for the presage CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alightgoesout/presage"
	"github.com/alightgoesout/presage/codec/msgpack"
)

// Config represents the presage CLI configuration
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// Service configuration
	Service ServiceConfig `yaml:"service"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Dispatch configuration
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `yaml:"tracing"`
}

// ServiceConfig contains service-level settings
type ServiceConfig struct {
	// Name of the service, used as metric label and span attribute
	Name string `yaml:"name"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	// Level is the minimum level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Format is the output format (text, json)
	Format string `yaml:"format"`
}

// DispatchConfig contains command bus settings
type DispatchConfig struct {
	// Codec used to serialize events (json, msgpack)
	Codec string `yaml:"codec"`

	// RecoverPanics converts handler panics into errors
	RecoverPanics bool `yaml:"recover_panics"`

	// ValidateCommands runs Validate on commands implementing it
	ValidateCommands bool `yaml:"validate_commands"`

	// LogCommands logs every handled command
	LogCommands bool `yaml:"log_commands"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is where spans go (stdout, none)
	Exporter string `yaml:"exporter"`

	// ServiceName overrides service.name for spans
	ServiceName string `yaml:"service_name,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Service: ServiceConfig{
			Name: "presage",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Dispatch: DispatchConfig{
			Codec:            "json",
			RecoverPanics:    true,
			ValidateCommands: true,
			LogCommands:      false,
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "presage",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// ConfigFileName is the default config file name
const ConfigFileName = "presage.yaml"

// Load loads configuration from the specified directory
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
// Missing settings keep their default value.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to the specified directory
func (c *Config) Save(dir string) error {
	path := filepath.Join(dir, ConfigFileName)
	return c.SaveFile(path)
}

// SaveFile saves the configuration to a specific file path
func (c *Config) SaveFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Exists checks if a config file exists in the directory
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindConfig searches for a config file starting from dir and going up
func FindConfig(dir string) (string, *Config, error) {
	current := dir
	for {
		configPath := filepath.Join(current, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			cfg, err := LoadFile(configPath)
			if err != nil {
				return "", nil, err
			}
			return current, cfg, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached root, config not found
			return "", nil, os.ErrNotExist
		}
		current = parent
	}
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Service.Name == "" {
		errors = append(errors, "service.name is required")
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errors = append(errors, "logging.level must be 'debug', 'info', 'warn' or 'error'")
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errors = append(errors, "logging.format must be 'text' or 'json'")
	}

	if _, err := c.Codec(); err != nil {
		errors = append(errors, "dispatch.codec must be 'json' or 'msgpack'")
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		errors = append(errors, "metrics.namespace is required when metrics are enabled")
	}

	if c.Tracing.Enabled && c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "none" {
		errors = append(errors, "tracing.exporter must be 'stdout' or 'none'")
	}

	return errors
}

// Codec returns the event codec selected by dispatch.codec.
func (c *Config) Codec() (presage.Codec, error) {
	switch c.Dispatch.Codec {
	case "", "json":
		return presage.JSONCodec, nil
	case msgpack.Name:
		return msgpack.NewCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", c.Dispatch.Codec)
	}
}

// SlogLevel returns the logging level as a slog.Level.
// Unknown levels fall back to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// TracingServiceName returns tracing.service_name, or service.name when unset.
func (c *Config) TracingServiceName() string {
	if c.Tracing.ServiceName != "" {
		return c.Tracing.ServiceName
	}
	return c.Service.Name
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", level)
	}
}

// GenerateYAML generates YAML content with comments
func GenerateYAML(cfg *Config) string {
	return `# Presage Configuration File
# This file configures the presage CLI

version: "1"

# Service settings
service:
  # Name used in metric labels and span attributes
  name: "` + cfg.Service.Name + `"

# Logging
logging:
  # Level: debug, info, warn or error
  level: "` + cfg.Logging.Level + `"

  # Format: text or json
  format: "` + cfg.Logging.Format + `"

# Command dispatch
dispatch:
  # Event codec: json or msgpack
  codec: "` + cfg.Dispatch.Codec + `"

  # Convert handler panics into errors
  recover_panics: ` + fmt.Sprint(cfg.Dispatch.RecoverPanics) + `

  # Validate commands implementing Validate() before handling them
  validate_commands: ` + fmt.Sprint(cfg.Dispatch.ValidateCommands) + `

  # Log every handled command
  log_commands: ` + fmt.Sprint(cfg.Dispatch.LogCommands) + `

# Prometheus metrics
metrics:
  enabled: ` + fmt.Sprint(cfg.Metrics.Enabled) + `
  namespace: "` + cfg.Metrics.Namespace + `"

# OpenTelemetry tracing
tracing:
  enabled: ` + fmt.Sprint(cfg.Tracing.Enabled) + `

  # Exporter: stdout or none
  exporter: "` + cfg.Tracing.Exporter + `"
`
}
