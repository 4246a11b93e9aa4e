package main

import (
	"errors"
	"os"
	"path"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/config"
	"github.com/spf13/cobra"
)

var (
	Version = "0.0.0"

	// Global flags
	datadir    string
	configFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(
		&datadir,
		"datadir",
		config.DefaultBaseDirectory,
		"Set the base directory for blindbit tweakscan. Default directory is ~/.blindbit-tweakscan",
	)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Path to config file (default: datadir/tweakscan.toml)",
	)

	rootCmd.AddCommand(scanCmd, serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "tweakscan",
	Short: "BlindBit silent payment tweak scanner",
	Long: `BlindBit tweakscan derives the BIP352 silent payment tweaks of a block
from the block and previous output data of a bitcoin node.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.BaseDirectory = datadir
		config.SetDirectories()

		err := os.MkdirAll(config.BaseDirectory, 0750)
		if err != nil && !errors.Is(err, os.ErrExist) {
			logging.L.Err(err).Msg("error creating base directory")
			return err
		}

		// load after loggers are instantiated
		if configFile == "" {
			configFile = path.Join(config.BaseDirectory, config.ConfigFileName)
		}
		if err = config.LoadConfigs(configFile); err != nil {
			logging.L.Err(err).Str("config", configFile).Msg("invalid configuration")
			return err
		}

		if config.LogsPath != "" {
			if err := logging.SetLogOutput(config.LogsPath, "tweakscan.log"); err != nil {
				logging.L.Warn().Err(err).Msg("Failed to initialize file logging")
			}
		}
		logging.SetConsoleLogging(config.LogToConsole)

		logging.L.Debug().Msgf("base directory %s", config.BaseDirectory)
		return nil
	},
}

func main() {
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		logging.L.Err(err).Msg("command failed")
		logging.Close()
		os.Exit(1)
	}
}
