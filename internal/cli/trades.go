package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goDEXd/internal/core/ledger/entry"
	"github.com/LeJamon/goDEXd/internal/storage"
	"github.com/LeJamon/goDEXd/internal/storage/relationaldb"
)

var (
	tradesLimit int
	tradesOffer bool
)

var errNoTradeDB = errors.New("no trade database configured (set trade_db.driver)")

var tradesCmd = &cobra.Command{
	Use:   "trades [account | offer-id]",
	Short: "Query recorded trades",
	Long: `Trades lists crosses recorded in the configured trade database, either
those an account took part in as taker or seller, or those against one
resting offer.

Example:
    dexd trades alice --limit 20
    dexd trades 42 --offer`,
	Args: cobra.ExactArgs(1),
	RunE: runTrades,
}

var tradeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show trade database statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openTrades(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		stats, err := repo.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport(cmd.OutOrStdout(), "", stats)
	},
}

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradeStatsCmd)

	tradesCmd.Flags().IntVar(&tradesLimit, "limit", 100, "Maximum number of trades to list")
	tradesCmd.Flags().BoolVar(&tradesOffer, "offer", false, "Treat the argument as an offer ID")
}

func openTrades(cmd *cobra.Command) (relationaldb.TradeRepository, error) {
	repo, err := storage.OpenTrades(cmd.Context(), &cfg.TradeDB)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, errNoTradeDB
	}
	return repo, nil
}

func runTrades(cmd *cobra.Command, args []string) error {
	repo, err := openTrades(cmd)
	if err != nil {
		return err
	}
	defer repo.Close()

	var trades []relationaldb.Trade
	if tradesOffer {
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid offer ID %q: %w", args[0], perr)
		}
		trades, err = repo.TradesByOffer(cmd.Context(), id)
	} else {
		trades, err = repo.TradesByAccount(cmd.Context(), entry.AccountID(args[0]), tradesLimit)
	}
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), "", trades)
}
