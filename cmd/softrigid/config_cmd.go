package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-softrigid/pkg/config"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

// configDefaultCmd writes the default configuration
var configDefaultCmd = &cobra.Command{
	Use:   "default [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration to path, or to --config when no path
is given. The format follows the file extension: .yaml/.yml for YAML,
anything else for JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigDefault,
}

func runConfigDefault(cmd *cobra.Command, args []string) error {
	path := configPath
	if len(args) == 1 {
		path = args[0]
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	logger.Info(commandContext(cmd), "Created default configuration file", "config_path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
