package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goDEXd/internal/config"
	"github.com/LeJamon/goDEXd/internal/core/tx/offer"
	"github.com/LeJamon/goDEXd/internal/scenario"
	"github.com/LeJamon/goDEXd/internal/storage"
)

var outputReport string

var runCmd = &cobra.Command{
	Use:   "run [scenario.json]",
	Short: "Apply a scenario to the configured ledger store",
	Long: `Run seeds the configured store with the scenario's accounts, trust
lines and resting offers, applies its operations in order and prints a
JSON report of every step and the final state.

When a trade database is configured every executed cross is recorded in it.

Example:
    dexd run ./scenarios/cross.json
    dexd run ./scenarios/cross.json --conf dexd.toml -o report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputReport, "output", "o", "", "Output file for the report (default stdout)")
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer db.Close()

	trades, err := storage.OpenTrades(ctx, &cfg.TradeDB)
	if err != nil {
		return fmt.Errorf("open trade database: %w", err)
	}
	var recorder offer.TradeRecorder
	if trades != nil {
		defer trades.Close()
		recorder = trades
	}

	runner, err := newRunner(cfg, recorder)
	if err != nil {
		return err
	}
	logger.Info("running scenario",
		zap.String("scenario", sc.Name),
		zap.String("backend", cfg.Storage.Backend),
		zap.Stringer("generation", runner.Generation))

	report, err := runner.Run(ctx, db, sc)
	if err != nil {
		return err
	}
	logger.Info("scenario complete",
		zap.Int("steps", len(report.Steps)),
		zap.String("digest", report.Digest))
	return writeReport(cmd.OutOrStdout(), outputReport, report)
}

func newRunner(c *config.Config, recorder offer.TradeRecorder) (*scenario.Runner, error) {
	gen, err := c.Generation()
	if err != nil {
		return nil, err
	}
	return &scenario.Runner{
		Generation:       gen,
		MaxOffersToCross: c.Exchange.MaxOffersToCross,
		Genesis:          c.Genesis(),
		CacheSize:        c.Ledger.CacheSize,
		Recorder:         recorder,
		Logger:           logger,
	}, nil
}

func writeReport(stdout io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(stdout, "Report written to: %s\n", path)
	return nil
}
