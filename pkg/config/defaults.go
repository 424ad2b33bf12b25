package config

import (
	"strings"
	"time"

	"github.com/buyukakyuz/bpx/internal/bytesize"
)

// GetDefaultConfig returns a Config populated entirely with default values,
// the configuration used when no file is present.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued fields in cfg with defaults; a
// zero value always means "unset" for these fields.
func ApplyDefaults(cfg *Config) {
	applySessionDefaults(&cfg.Sessions)
	applyDiffDefaults(&cfg.Diff)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyResourceStoreDefaults(&cfg.ResourceStore)
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = 10_000
	}
	if cfg.MaxResourcesPerSession == 0 {
		cfg.MaxResourcesPerSession = 256
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Minute
	}
}

func applyDiffDefaults(cfg *DiffConfig) {
	if cfg.MaxDiffSize == 0 {
		cfg.MaxDiffSize = bytesize.MiB
	}
	// MinCompressionRatio's zero value (0) disables the ratio gate
	// entirely; see DESIGN.md's Request Handler entry.
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":9090"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
}

func applyResourceStoreDefaults(cfg *ResourceStoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 8
	}
	if cfg.BadgerDir == "" {
		cfg.BadgerDir = "./bpx-data"
	}
	if cfg.ResourceHistoryTTL == 0 {
		cfg.ResourceHistoryTTL = time.Hour
	}
}
