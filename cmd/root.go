// =============================================================================
// OC Harvester - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (oc-harvester)
//   ├── harvestCmd (oc-harvester harvest)
//   ├── inspectCmd (oc-harvester inspect)
//   ├── historyCmd (oc-harvester history)
//   └── versionCmd (oc-harvester version)
//
// The root command owns the global flags (--config, --verbose) and the
// shared setup: loading config.yaml and opening the logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hbsjo/oc-harvester/internal/config"
	"github.com/hbsjo/oc-harvester/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "oc-harvester",
	Short: "Daily purchase-order harvester for the Mercado Público API",
	Long: `oc-harvester downloads every purchase order (OC) issued to one organization
on a given day from the Mercado Público API, fetches each order's line items,
apportions the order tax across lines when the API does not provide it, and
writes one semicolon-delimited file per day plus an error file for orders that
could not be retrieved.

Example Usage:
  oc-harvester harvest --today
  oc-harvester harvest --date 11-12-2025 --include-pharma=false
  oc-harvester harvest --from 01-12-2025 --to 07-12-2025
  oc-harvester harvest --interactive
  oc-harvester inspect output/DIARIO/OC_HBSJO_20251211_detalle.csv
  oc-harvester history --limit 10`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfigAndLogger loads the main configuration and opens the logger it
// describes. The returned closer releases the log file.
func loadConfigAndLogger() (*config.MainConfig, logging.Logger, io.Closer, error) {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if verbose {
		level = logging.LevelDebug
	}

	logger, closer, err := logging.Open(cfg.LogFile, level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open log: %w", err)
	}
	logger.Debug("Configuration loaded from %s", cfgFile)

	return cfg, logger, closer, nil
}
