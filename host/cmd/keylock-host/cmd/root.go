package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keylock/host/config"
	"keylock/host/device"
	"keylock/host/logger"
	"keylock/host/version"
)

var (
	// configPath is the YAML settings file.
	configPath string
	// devicePath overrides serial.device from the settings file.
	devicePath string
	// logLevel overrides log_level from the settings file.
	logLevel string

	// settings is filled by PersistentPreRunE before any subcommand runs.
	settings *config.Config

	rootCmd = &cobra.Command{
		Use:   "keylock-host",
		Short: "Inspect a keypad lock over USB serial.",
		Long: `Talks to a keypad lock over its USB CDC serial link.

The lock serves a compressed data dictionary describing its messages; every
subcommand downloads it first and decodes responses from it. The lock only
ever reports how many digits were entered, never which ones.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadSettings,
	}
)

// Execute runs keylock-host and exits with a non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&devicePath, "device", "d", "", "serial device, overrides the configuration file")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(dictCmd, statusCmd, monitorCmd)
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	var err error
	if cmd.Flags().Changed("config") {
		settings, err = config.Load(configPath)
	} else {
		settings, err = config.LoadOptional(configPath)
	}
	if err != nil {
		return err
	}

	if devicePath != "" {
		settings.Serial.Device = devicePath
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if err := config.Validate(settings); err != nil {
		return err
	}

	lvl, _ := logger.ParseLogLevel(settings.LogLevel)
	logger.SetLevel(lvl)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

// connect opens the configured device and downloads its dictionary.
func connect(ctx context.Context) (*device.Device, error) {
	dev, err := device.Open(ctx, settings.Serial)
	if err != nil {
		return nil, err
	}
	dev.SetTimeout(settings.Timeout)

	if _, err := dev.RetrieveDictionary(ctx); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("retrieve dictionary: %w", err)
	}
	return dev, nil
}
