package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goDEXd/internal/scenario"
	"github.com/LeJamon/goDEXd/internal/storage"
)

var (
	replayRuns        int
	replayConcurrency int
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [scenario.json]",
	Short: "Replay a scenario concurrently and compare the outcomes",
	Long: `Replay runs a scenario several times, each against its own in-memory
store of the configured backend, and fails unless every run reaches the
same digest. Trades are not recorded.

Example:
    dexd replay ./scenarios/cross.json --runs 16
    dexd replay ./scenarios/cross.json --runs 64 --concurrency 8`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().IntVarP(&replayRuns, "runs", "n", 4, "Number of runs")
	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 0, "Maximum concurrent runs (default all)")
}

// ReplaySummary is the outcome of a replay.
type ReplaySummary struct {
	Scenario string        `json:"scenario"`
	Runs     int           `json:"runs"`
	Digest   string        `json:"digest"`
	Duration time.Duration `json:"duration_ns"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	if replayRuns < 1 {
		return fmt.Errorf("--runs must be at least 1, got %d", replayRuns)
	}
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg, nil)
	if err != nil {
		return err
	}
	start := time.Now()

	digests := make([]string, replayRuns)
	g, ctx := errgroup.WithContext(cmd.Context())
	if replayConcurrency > 0 {
		g.SetLimit(replayConcurrency)
	}
	for i := range digests {
		g.Go(func() error {
			db, err := storage.Open(storage.Options{
				Backend:     cfg.Storage.Backend,
				Compression: cfg.Storage.Compression,
				CacheSize:   cfg.Storage.CacheSize,
			})
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := runner.Run(ctx, db, sc)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			digests[i] = report.Digest
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, d := range digests {
		if d != digests[0] {
			logger.Error("replay diverged",
				zap.Int("run", i),
				zap.String("digest", d),
				zap.String("want", digests[0]))
			return fmt.Errorf("run %d digest %s differs from run 0 digest %s", i, d, digests[0])
		}
	}

	summary := ReplaySummary{
		Scenario: sc.Name,
		Runs:     replayRuns,
		Digest:   digests[0],
		Duration: time.Since(start),
	}
	logger.Info("replay consistent",
		zap.String("scenario", sc.Name),
		zap.Int("runs", replayRuns),
		zap.Duration("duration", summary.Duration))
	return writeReport(cmd.OutOrStdout(), "", summary)
}
