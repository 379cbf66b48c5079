package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goDEXd/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	// the file being written need not exist yet
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SaveExampleConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Example configuration written to: %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.TradeDB.Password = ""
		if shown.TradeDB.ConnectionString != "" {
			shown.TradeDB.ConnectionString = "<redacted>"
		}
		return writeReport(cmd.OutOrStdout(), "", shown)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
