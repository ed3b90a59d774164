package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"keylock/host/config"
	"keylock/host/version"
)

var (
	// configPath is the YAML settings file; only the lock and log_level
	// sections are used.
	configPath string
	// logLevel overrides log_level from the settings file.
	logLevel string

	rootCmd = &cobra.Command{
		Use:          "keylock-sim",
		Short:        "Run the keypad lock firmware on this machine.",
		SilenceUsage: true,
	}
)

// Execute runs keylock-sim and exits with a non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(runCmd)
}
