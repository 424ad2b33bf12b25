// Package config loads BPX's configuration, layered: defaults, then a
// YAML file, then BPX_*-prefixed environment variables, validated at
// load time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/buyukakyuz/bpx/internal/bytesize"
)

// Config is BPX's complete static configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (BPX_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	// Sessions controls the State Manager's capacity and lifetime limits.
	Sessions SessionConfig `mapstructure:"sessions" yaml:"sessions"`

	// Diff controls the Diff Engine's size and acceptance thresholds.
	Diff DiffConfig `mapstructure:"diff" yaml:"diff"`

	// Server configures the HTTP listener.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ResourceStore selects and configures the ResourceStore backend.
	ResourceStore ResourceStoreConfig `mapstructure:"resourcestore" yaml:"resourcestore"`
}

// SessionConfig mirrors session.Config's tunables (spec.md §6).
type SessionConfig struct {
	MaxSessions            int           `mapstructure:"max_sessions" validate:"required,gt=0" yaml:"max_sessions"`
	MaxResourcesPerSession int           `mapstructure:"max_resources_per_session" validate:"required,gt=0" yaml:"max_resources_per_session"`
	SessionTTL             time.Duration `mapstructure:"session_ttl" validate:"required,gt=0" yaml:"session_ttl"`
	CleanupInterval        time.Duration `mapstructure:"cleanup_interval" validate:"required,gt=0" yaml:"cleanup_interval"`
	SigningKey             string        `mapstructure:"signing_key" yaml:"signing_key,omitempty"`
}

// DiffConfig mirrors handler.Config's diff-acceptance tunables.
type DiffConfig struct {
	// MaxDiffSize accepts plain byte counts or human-readable sizes
	// ("1Mi", "512Ki", "2MB") via bytesize.ByteSize's TextUnmarshaler.
	MaxDiffSize         bytesize.ByteSize `mapstructure:"max_diff_size" validate:"required,gt=0" yaml:"max_diff_size"`
	MinCompressionRatio float64           `mapstructure:"min_compression_ratio" validate:"omitempty,gte=0,lt=1" yaml:"min_compression_ratio"`
	CacheTTL            time.Duration     `mapstructure:"cache_ttl" yaml:"cache_ttl,omitempty"`
}

// ServerConfig configures the HTTP listener pkg/server wraps.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" validate:"required" yaml:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logging behavior, identical in shape to the
// teacher's own LoggingConfig.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" validate:"omitempty" yaml:"listen_addr"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing, profiling
// included.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// ResourceStoreConfig selects and configures the ResourceStore backend.
type ResourceStoreConfig struct {
	// Backend selects the implementation: "memory" or "badger".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger" yaml:"backend"`

	// HistoryLimit bounds the in-memory backend's retained versions per path.
	HistoryLimit int `mapstructure:"history_limit" validate:"omitempty,gt=0" yaml:"history_limit"`

	// BadgerDir is the data directory for the badger backend.
	BadgerDir string `mapstructure:"badger_dir" yaml:"badger_dir,omitempty"`

	// ResourceHistoryTTL is the badger backend's TTL for historical versions.
	ResourceHistoryTTL time.Duration `mapstructure:"resource_history_ttl" yaml:"resource_history_ttl,omitempty"`
}

// Load loads configuration from file, environment, and defaults, then
// validates it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	// Registering every default key lets BPX_* variables override keys the
	// file does not mention, and applies them when no file exists at all.
	var defaults map[string]any
	if err := mapstructure.Decode(*cfg, &defaults); err != nil {
		return nil, fmt.Errorf("failed to register config defaults: %w", err)
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	hook := mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), byteSizeDecodeHook())
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration the same way Load does, but returns a
// user-facing error with setup instructions when no config file exists at
// the default location.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" && !DefaultConfigExists() {
		return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  bpx init\n\n"+
			"Or specify a custom config file:\n"+
			"  bpx <command> --config /path/to/config.yaml",
			GetDefaultConfigPath())
	}
	return Load(configPath)
}

// Validate checks cfg against its struct tags via go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path as YAML, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BPX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts human-readable duration strings ("30s",
// "5m") to time.Duration during viper's Unmarshal.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// byteSizeDecodeHook converts human-readable byte size strings ("1Mi",
// "512Ki", "2MB") and plain numbers to bytesize.ByteSize during viper's
// Unmarshal.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bpx")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "bpx")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
