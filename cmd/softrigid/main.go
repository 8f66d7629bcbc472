// cmd/softrigid/main.go
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-softrigid/pkg/config"
	"github.com/opd-ai/go-softrigid/pkg/logging"
)

var (
	logger     = logging.NewLogger()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "softrigid",
	Short: "Soft-rigid contact simulation",
	Long: `softrigid steps deformable bodies against rigid colliders using
velocity-level contact constraints with Coulomb friction.

Configuration is read from --config (JSON or YAML by extension) and then
overridden by SOFTRIGID_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "softrigid.yaml", "Path to configuration file")
	rootCmd.AddCommand(simulateCmd, configCmd)
	configCmd.AddCommand(configDefaultCmd)
}

// loadConfig reads configPath when it exists, falling back to defaults, and
// applies environment overrides
func loadConfig(ctx context.Context) (*config.Config, error) {
	var cfg *config.Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", configPath,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, logging.WrapError(err, "load %s", configPath)
		}
	}

	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, logging.WrapError(err, "apply environment configuration")
	}
	return cfg, nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(context.Background(), "Command failed", err)
		os.Exit(1)
	}
}
