package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] <file|glob>...",
	Short: "Show how dump files would be sorted",
	Long: `Classify every record of the given files and print bucket counts
without writing any output file. Accepts the same rule and configuration
flags as sort.

Examples:
  credsift stats leak.txt
  credsift stats --format json leak.txt
  credsift stats --top 5 --format table 'dumps/*.txt'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of buckets to list (0 lists all)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, args, true)
}
