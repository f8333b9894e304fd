package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/delmic/odemis-sub008/internal/cli"
	"github.com/delmic/odemis-sub008/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optpath",
	Short: "optpath drives the optical path of a modular microscope",
	Long: `optpath moves the actuators of a microscope so that light reaches the detector of
an acquisition mode (angle resolved, spectral, alignment...). It can apply a single mode,
run as an HTTP or MCP server, or open an interactive session.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "optpath.toml", "Settings file")
	rootCmd.PersistentFlags().StringP("instrument", "i", "", "Instrument description (overrides the settings file)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log path changes and moves")
}

// loadConfig reads the settings file. A missing default file is not an error
// as long as --instrument names the instrument.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	instrument, _ := cmd.Flags().GetString("instrument")

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return config.Config{}, err
	}

	if instrument != "" {
		cfg.Instrument = instrument
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openApp builds and starts the path manager of the configured instrument.
// The caller must Close the returned app.
func openApp(ctx context.Context, cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.CreateLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}

	app, err := cli.NewApp(ctx, cfg, logger, debug)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}
