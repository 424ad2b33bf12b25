package commands

import (
	"fmt"
	"os"

	"github.com/buyukakyuz/bpx/internal/cli/prompt"
	"github.com/buyukakyuz/bpx/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce          bool
	initNonInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a BPX configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/bpx/config.yaml, with a few prompts (listen address,
resource store backend, max sessions, metrics) for the settings most
deployments need to change. Use --config to specify a custom path, or
--yes to accept every default without prompting.

Examples:
  # Initialize interactively at the default location
  bpx init

  # Initialize with custom path
  bpx init --config /etc/bpx/config.yaml

  # Accept defaults, no prompts
  bpx init --yes

  # Force overwrite existing config
  bpx init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVarP(&initNonInteractive, "yes", "y", false, "Accept defaults without prompting")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()
	if configFile == "" {
		configFile = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configFile); err == nil {
		if initNonInteractive && !initForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configFile)
		}
		if !initNonInteractive {
			overwrite, err := prompt.ConfirmWithForce(fmt.Sprintf("%s already exists. Overwrite", configFile), initForce)
			if err != nil {
				if prompt.IsAborted(err) {
					fmt.Println("\nAborted.")
					return nil
				}
				return err
			}
			if !overwrite {
				fmt.Println("Aborted.")
				return nil
			}
			initForce = true
		}
	}

	if initNonInteractive {
		if err := writeDefaultConfig(configFile); err != nil {
			return err
		}
	} else {
		if err := writeInteractiveConfig(configFile); err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nAborted.")
				return nil
			}
			return err
		}
	}

	fmt.Printf("Configuration file created at: %s\n", configFile)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the server with: bpx start")
	fmt.Printf("  3. Or specify custom config: bpx start --config %s\n", configFile)
	return nil
}

// writeDefaultConfig scaffolds the commented YAML template used by --yes.
func writeDefaultConfig(path string) error {
	if path == config.GetDefaultConfigPath() {
		_, err := config.InitConfig(initForce)
		return err
	}
	return config.InitConfigToPath(path, initForce)
}

// writeInteractiveConfig prompts for the handful of settings a new
// deployment most commonly needs to change, then saves a full Config.
func writeInteractiveConfig(path string) error {
	cfg := config.GetDefaultConfig()

	listenAddr, err := prompt.Input("HTTP listen address", cfg.Server.ListenAddr)
	if err != nil {
		return err
	}
	cfg.Server.ListenAddr = listenAddr

	backend, err := prompt.Select("ResourceStore backend", []prompt.SelectOption{
		{Label: "memory", Value: "memory", Description: "No persistence; resource history is lost on restart"},
		{Label: "badger", Value: "badger", Description: "Embedded on-disk store; resource history survives restarts"},
	})
	if err != nil {
		return err
	}
	cfg.ResourceStore.Backend = backend

	if backend == "badger" {
		dir, err := prompt.Input("Badger data directory", cfg.ResourceStore.BadgerDir)
		if err != nil {
			return err
		}
		cfg.ResourceStore.BadgerDir = dir
	}

	maxSessions, err := prompt.InputInt("Max concurrent sessions", cfg.Sessions.MaxSessions)
	if err != nil {
		return err
	}
	cfg.Sessions.MaxSessions = maxSessions

	metricsEnabled, err := prompt.Confirm("Enable Prometheus metrics", true)
	if err != nil {
		return err
	}
	cfg.Metrics.Enabled = metricsEnabled

	signingKey, err := config.GenerateSigningKey()
	if err != nil {
		return err
	}
	cfg.Sessions.SigningKey = signingKey

	return config.SaveConfig(cfg, path)
}
