package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goDEXd/internal/config"
)

var (
	// Global flags
	configFile string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dexd",
	Short: "goDEXd - order book matching engine",
	Long: `goDEXd crosses sell and buy offers against resting order books and
settles the results on a ledger held in an embedded key-value store.

Scenarios describe a starting ledger and the offer operations applied to
it. They can be run once against the configured store or replayed
concurrently to check that every run settles to the same state.`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}

// setup loads the configuration and builds the logger shared by all
// subcommands.
func setup(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}

	var err error
	if cfg, err = config.LoadConfig(path); err != nil {
		return err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if logger, err = newLogger(cfg.Log); err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	if p := cfg.GetConfigPath(); p != "" {
		logger.Debug("loaded configuration", zap.String("path", p))
	}
	return nil
}
