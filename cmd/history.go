package cmd

import (
	"fmt"

	"github.com/bimmerbailey/credsift/internal/ledger"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded sort runs",
	Long: `Show the most recent file runs recorded in the ledger. The ledger is
enabled with --ledger or the ledger config key.

Examples:
  credsift history --ledger ~/.credsift/ledger.db
  credsift history --limit 50 --format json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of runs to show (0 shows all)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger == "" {
		return fmt.Errorf("no ledger configured (use --ledger or the ledger config key)")
	}

	led, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}
	defer led.Close()

	entries, err := led.Recent(commandContext(cmd), limit)
	if err != nil {
		return err
	}
	return newWriter(cmd).WriteHistory(entries)
}
