package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// configTemplate is the commented YAML scaffold InitConfig/InitConfigToPath
// write out, covering every section Config defines.
const configTemplate = `# BPX Configuration File
#
# Generated by "bpx init". Edit freely; unset fields fall back to defaults,
# and every field can be overridden by a BPX_<SECTION>_<KEY> environment
# variable (e.g. BPX_LOGGING_LEVEL=DEBUG).

# Sessions controls the State Manager's capacity and lifetime limits.
sessions:
  max_sessions: 10000
  max_resources_per_session: 256
  session_ttl: 30m
  cleanup_interval: 1m
  # signing_key authenticates minted session ids as BPX's own (HMAC-signed
  # JWTs whose subject is the session uuid). A random key is generated on init; replace it
  # with a stable secret shared across a fleet of BPX instances.
  signing_key: "%s"

# Diff controls the Diff Engine's size and acceptance thresholds.
diff:
  # max_diff_size accepts plain byte counts or human-readable sizes
  # ("1Mi", "512Ki", "2MB").
  max_diff_size: 1Mi
  # min_compression_ratio: 0 disables the ratio gate (any patch within
  # max_diff_size is accepted, even one larger than the full body); set e.g. 0.3 to require diffs shrink the response by 30%%.
  min_compression_ratio: 0
  cache_ttl: 0

# Server configures the HTTP listener.
server:
  listen_addr: ":8080"
  shutdown_timeout: 15s

# Logging controls log output behavior.
logging:
  level: INFO
  format: text
  output: stdout

# Metrics configures the Prometheus metrics endpoint.
metrics:
  enabled: true
  listen_addr: ":9090"

# Telemetry controls OpenTelemetry distributed tracing.
telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040

# ResourceStore selects and configures the ResourceStore backend.
resourcestore:
  backend: memory
  history_limit: 8
  badger_dir: ./bpx-data
  resource_history_ttl: 1h
`

// InitConfig writes a new config file to the default location
// ($XDG_CONFIG_HOME/bpx/config.yaml, or ~/.config/bpx/config.yaml),
// refusing to overwrite an existing file unless force is true. It returns
// the path written.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a new config file to path, refusing to
// overwrite an existing file unless force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	signingKey, err := GenerateSigningKey()
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(configTemplate, signingKey)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateSigningKey returns a cryptographically random 32-byte key,
// hex-encoded for safe YAML embedding.
func GenerateSigningKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
