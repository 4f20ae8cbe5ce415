// Package cmd implements the includeos command line.
package cmd

import (
	"fmt"
	"os"

	"includeos/kernel/config"
	"includeos/kernel/kfmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "includeos",
	Short: "Boot a hosted single-core unikernel",
	Long: `includeos boots a unikernel as the only program of a Linux microVM or as a
regular host process. SIGINT and SIGTERM act as the power button.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the kernel TOML configuration")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration selected on the command line and
// configures the kernel logger with it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	kfmt.ConfigureLogger(cfg.Log)
	color.NoColor = cfg.Log.NoColor
	return cfg, nil
}
