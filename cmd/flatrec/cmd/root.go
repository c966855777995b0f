/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/flatrec/pkg/config"
	"github.com/ssargent/flatrec/pkg/di"
	"github.com/ssargent/flatrec/pkg/observability"
)

var (
	cfg       *config.Config
	container *di.Container
	logger    *zap.Logger
)

// SetContainer injects the dependency container (for testing)
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flatrec",
	Short: "flatrec - fixed-width record codec",
	Long: `flatrec maps fixed-width positional text lines to JSON records and back,
following the layouts declared in a YAML layout document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			return nil
		}
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// setup loads the configuration, builds the logger and the container
func setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	loaded := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		var err error
		if loaded, err = config.LoadConfig(configPath); err != nil {
			return err
		}
	}

	if layouts, _ := cmd.Flags().GetString("layouts"); layouts != "" {
		loaded.Layouts = layouts
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Logging.Level = level
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	l, err := observability.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger = l

	if container == nil {
		container = di.NewContainer(logger)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.GetDefaultConfigPath(), "Configuration file")
	rootCmd.PersistentFlags().StringP("layouts", "l", "", "Layout document (overrides the configuration)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}
