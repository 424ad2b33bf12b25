package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/buyukakyuz/bpx/internal/bpx/handler"
	"github.com/buyukakyuz/bpx/internal/bpx/session"
	"github.com/buyukakyuz/bpx/internal/logger"
	"github.com/buyukakyuz/bpx/internal/telemetry"
	"github.com/buyukakyuz/bpx/pkg/api"
	"github.com/buyukakyuz/bpx/pkg/config"
	"github.com/buyukakyuz/bpx/pkg/metrics"
	"github.com/buyukakyuz/bpx/pkg/resourcestore"
	"github.com/buyukakyuz/bpx/pkg/resourcestore/badger"
	"github.com/buyukakyuz/bpx/pkg/server"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the BPX server",
	Long: `Start the BPX server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/bpx/config.yaml.

Examples:
  # Start in background (default)
  bpx start

  # Start in foreground
  bpx start --foreground

  # Start with custom config file
  bpx start --config /etc/bpx/config.yaml

  # Start with environment variable overrides
  BPX_LOGGING_LEVEL=DEBUG bpx start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/bpx/bpx.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/bpx/bpx.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "bpx",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:  cfg.Telemetry.Profiling.Enabled,
		Endpoint: cfg.Telemetry.Profiling.Endpoint,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("BPX - Binary Patch Exchange")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	} else {
		logger.Info("Profiling disabled")
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		recorder = metrics.NewRecorder(registry)

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metricsMux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Close() }()
		logger.Info("Metrics enabled", "listen_addr", cfg.Metrics.ListenAddr)
	} else {
		logger.Info("Metrics collection disabled")
	}

	store, closeStore, err := newResourceStore(cfg.ResourceStore)
	if err != nil {
		return fmt.Errorf("failed to initialize resource store: %w", err)
	}
	if closeStore != nil {
		defer func() { _ = closeStore() }()
	}
	if recorder != nil {
		store = metrics.NewInstrumentedStore(store, recorder)
	}
	logger.Info("ResourceStore initialized", "backend", cfg.ResourceStore.Backend)

	sessions := session.NewManagerWithMetrics(session.Config{
		MaxSessions:            cfg.Sessions.MaxSessions,
		MaxResourcesPerSession: cfg.Sessions.MaxResourcesPerSession,
		SessionTTL:             cfg.Sessions.SessionTTL,
		CleanupInterval:        cfg.Sessions.CleanupInterval,
		SigningKey:             cfg.Sessions.SigningKey,
	}, recorder)
	sessions.StartSweeper(ctx)
	defer sessions.StopSweeper()

	negotiator := handler.New(store, sessions, handler.Config{
		MaxDiffSize:         int(cfg.Diff.MaxDiffSize),
		MinCompressionRatio: cfg.Diff.MinCompressionRatio,
		CacheTTL:            cfg.Diff.CacheTTL,
	}, recorder)

	router := api.NewRouter(negotiator, sessions)
	srv := server.New(server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router)

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	logger.Info("Server is running. Press Ctrl+C to stop.", "listen_addr", cfg.Server.ListenAddr)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")

	return nil
}

// newResourceStore constructs the configured ResourceStore backend. The
// returned close func is non-nil only for backends holding an external
// resource (the badger backend's on-disk database handle).
func newResourceStore(cfg config.ResourceStoreConfig) (resourcestore.Store, func() error, error) {
	switch cfg.Backend {
	case "badger":
		store, err := badger.Open(cfg.BadgerDir, cfg.ResourceHistoryTTL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return resourcestore.NewMemory(cfg.HistoryLimit), nil, nil
	}
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// startDaemon starts the server as a background daemon process.
func startDaemon() error {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	bpxStateDir := filepath.Join(stateDir, "bpx")

	if err := os.MkdirAll(bpxStateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = filepath.Join(bpxStateDir, "bpx.pid")
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidData, err := os.ReadFile(pidPath)
		if err == nil {
			var pid int
			if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err == nil {
				if process, err := os.FindProcess(pid); err == nil {
					if err := process.Signal(syscall.Signal(0)); err == nil {
						return fmt.Errorf("BPX is already running (PID %d)\nUse 'bpx stop' to stop the running instance", pid)
					}
				}
			}
		}
		_ = os.Remove(pidPath)
	}

	logPath := logFile
	if logPath == "" {
		logPath = filepath.Join(bpxStateDir, "bpx.log")
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	cmd := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	cmd.Stdout = logFileHandle
	cmd.Stderr = logFileHandle
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	_ = logFileHandle.Close()

	fmt.Printf("BPX started in background (PID %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'bpx stop' to stop the server")
	fmt.Println("Use 'bpx stats' to inspect server state")

	return nil
}
