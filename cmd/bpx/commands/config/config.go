// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage BPX configuration files.

Use 'bpx init' to create a new configuration file.

Subcommands:
  schema    Generate JSON schema for IDE/validation`,
}

func init() {
	Cmd.AddCommand(schemaCmd)
}
