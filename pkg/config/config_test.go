package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
logging:
  level: "INFO"

resourcestore:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected default shutdown_timeout 15s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Sessions.MaxSessions != 10_000 {
		t.Errorf("expected default max_sessions 10000, got %d", cfg.Sessions.MaxSessions)
	}
	if cfg.Diff.MaxDiffSize != 1<<20 {
		t.Errorf("expected default max_diff_size 1MiB, got %d", cfg.Diff.MaxDiffSize)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config to be returned")
	}
	if cfg.ResourceStore.Backend != "memory" {
		t.Errorf("expected default backend 'memory', got %q", cfg.ResourceStore.Backend)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error with invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
resourcestore:
  backend: postgres
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected validation error for unsupported backend, got nil")
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("expected default listen_addr ':8080', got %q", cfg.Server.ListenAddr)
	}
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Errorf("expected default metrics listen_addr ':9090', got %q", cfg.Metrics.ListenAddr)
	}
	if cfg.Diff.MinCompressionRatio != 0 {
		t.Errorf("expected default min_compression_ratio 0 (disabled), got %v", cfg.Diff.MinCompressionRatio)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("expected default sample_rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := getConfigDir()

	if filepath.Base(dir) != "bpx" {
		t.Errorf("expected directory name 'bpx', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	_ = os.Setenv("BPX_LOGGING_LEVEL", "ERROR")
	_ = os.Setenv("BPX_SERVER_LISTEN_ADDR", ":9999")
	defer func() {
		_ = os.Unsetenv("BPX_LOGGING_LEVEL")
		_ = os.Unsetenv("BPX_SERVER_LISTEN_ADDR")
	}()

	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
logging:
  level: "INFO"

resourcestore:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("expected listen_addr ':9999' from env var, got %q", cfg.Server.ListenAddr)
	}
}

func TestLoad_DurationParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
sessions:
  session_ttl: "45m"
  cleanup_interval: "90s"

resourcestore:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Sessions.SessionTTL != 45*time.Minute {
		t.Errorf("expected session_ttl 45m, got %v", cfg.Sessions.SessionTTL)
	}
	if cfg.Sessions.CleanupInterval != 90*time.Second {
		t.Errorf("expected cleanup_interval 90s, got %v", cfg.Sessions.CleanupInterval)
	}
}

func TestLoad_ByteSizeParsing(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
diff:
  max_diff_size: "2Mi"

resourcestore:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Diff.MaxDiffSize != 2*1024*1024 {
		t.Errorf("expected max_diff_size 2Mi (2097152 bytes), got %d", cfg.Diff.MaxDiffSize)
	}
}

func TestLoad_ByteSizePlainNumber(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
diff:
  max_diff_size: 4096

resourcestore:
  backend: memory
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Diff.MaxDiffSize != 4096 {
		t.Errorf("expected max_diff_size 4096, got %d", cfg.Diff.MaxDiffSize)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "DEBUG"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "DEBUG" {
		t.Errorf("expected reloaded level 'DEBUG', got %q", loaded.Logging.Level)
	}
}

func TestValidate_RejectsZeroMaxSessions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Sessions.MaxSessions = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for zero max_sessions, got nil")
	}
}

func TestValidate_AcceptsZeroCompressionRatio(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Diff.MinCompressionRatio = 0

	if err := Validate(cfg); err != nil {
		t.Errorf("expected zero min_compression_ratio to validate (disabled), got: %v", err)
	}
}

func TestDefaultConfigExists(t *testing.T) {
	_ = os.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer os.Unsetenv("XDG_CONFIG_HOME")

	if DefaultConfigExists() {
		t.Error("expected no default config to exist in a fresh XDG_CONFIG_HOME")
	}
}
