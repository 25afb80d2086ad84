package cmd

import (
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the hash patterns used for detection",
	Long: `List the hash patterns in match order. Patterns are grouped by the
byte length they apply to; within a length the first matching pattern wins.
Restrict the list with --hash-types; custom patterns come from the rules file.

Examples:
  credsift catalog
  credsift catalog --hash-types md5,sha1
  credsift catalog --format json`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(cmd, true)
	if err != nil {
		return err
	}
	return newWriter(cmd).WriteCatalog(p.catalog.Patterns())
}
