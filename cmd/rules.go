package cmd

import (
	"github.com/bimmerbailey/credsift/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective rule set as YAML",
	Long: `Print the rule set that sort would use, after applying rule flags,
the rules file and defaults. The output is a valid rules file.

Examples:
  credsift rules
  credsift rules --split-min 2 --email-index 0 > my-rules.yaml
  credsift sort --rules my-rules.yaml leak.txt`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	p, err := buildPipeline(cmd, true)
	if err != nil {
		return err
	}
	return rules.EncodeYAML(cmd.OutOrStdout(), p.rules, p.patterns)
}
