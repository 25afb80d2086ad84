package cmd

import (
	"fmt"
	"regexp"

	"github.com/bimmerbailey/credsift/internal/classify"
	"github.com/bimmerbailey/credsift/internal/output"
	"github.com/bimmerbailey/credsift/internal/parser"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] <file|glob>...",
	Short: "Print records by the bucket they would land in",
	Long: `Classify the given files and print the records whose bucket label
matches a pattern. The good bucket is labelled "good". Nothing is written.

Examples:
  credsift search -p good leak.txt
  credsift search -p '^\[MD5\]' --count 'dumps/*.txt'
  credsift search -p good -V leak.txt
  credsift search -p not_email -g '@gmail' leak.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringP("pattern", "p", "", "regex matched against the bucket label")
	searchCmd.Flags().StringP("grep", "g", "", "regex matched against the record text")
	searchCmd.Flags().BoolP("count", "c", false, "only print count of matching records")
	searchCmd.Flags().BoolP("invert", "V", false, "invert the label match")

	rootCmd.AddCommand(searchCmd)
}

type searchFilter struct {
	label  *regexp.Regexp
	record *regexp.Regexp
	invert bool
}

func (f searchFilter) matches(rec parser.Record, o classify.Outcome) bool {
	if f.label != nil {
		matched := f.label.MatchString(o.Label())
		if f.invert {
			matched = !matched
		}
		if !matched {
			return false
		}
	}
	if f.record != nil && !f.record.MatchString(rec.Line) {
		return false
	}
	return true
}

func runSearch(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("pattern")
	grep, _ := cmd.Flags().GetString("grep")
	countOnly, _ := cmd.Flags().GetBool("count")
	invert, _ := cmd.Flags().GetBool("invert")

	if invert && pattern == "" {
		return fmt.Errorf("--invert requires --pattern")
	}

	var filter searchFilter
	var err error
	if pattern != "" {
		filter.label, err = regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	if grep != "" {
		filter.record, err = regexp.Compile(grep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}
	filter.invert = invert

	p, err := buildPipeline(cmd, true)
	if err != nil {
		return err
	}
	files, err := p.expandInputs(args)
	if err != nil {
		return err
	}
	multiFile := len(files) > 1

	if countOnly {
		for _, path := range files {
			count := 0
			_, err := p.sorter.ClassifyFile(path, func(rec parser.Record, o classify.Outcome) error {
				if filter.matches(rec, o) {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
			if multiFile {
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\n", path, count)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", count)
		}
		return nil
	}

	var matches []output.Match
	for _, path := range files {
		_, err := p.sorter.ClassifyFile(path, func(rec parser.Record, o classify.Outcome) error {
			if filter.matches(rec, o) {
				matches = append(matches, output.Match{
					File:   path,
					Line:   rec.Num,
					Label:  o.Label(),
					Record: rec.Line,
				})
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return newWriter(cmd).WriteMatches(matches, multiFile)
}
