package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bimmerbailey/credsift/internal/analyzer"
	"github.com/bimmerbailey/credsift/internal/ledger"
	"github.com/bimmerbailey/credsift/internal/sorter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sortCmd = &cobra.Command{
	Use:   "sort [flags] <file|glob>...",
	Short: "Sort dump files into good and bad buckets",
	Long: `Sort every record of the given files into output files next to each
input (or in --output-dir):

  <stem>_<prefix>_good.txt            records that passed every rule
  <stem>_<prefix>_<label>_bad.txt     records rejected with <label>

Output files are opened in append mode. Inputs that are themselves output
files of a previous run are skipped.

Examples:
  credsift sort leak.txt
  credsift sort --workers 4 'dumps/*.txt'
  credsift sort --prefix run2 --invalid-utf8 drop leak.txt
  credsift sort --split-min 2 --split-max 2 --email-index 0 leak.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSort,
}

func init() {
	sortCmd.Flags().Int("top", 0, "number of buckets to list (0 lists all)")
	rootCmd.AddCommand(sortCmd)
}

func runSort(cmd *cobra.Command, args []string) error {
	return runBatch(cmd, args, false)
}

// runBatch sorts (or, with dryRun, only classifies) the files named by args
// and prints the aggregate statistics.
func runBatch(cmd *cobra.Command, args []string, dryRun bool) error {
	topN, _ := cmd.Flags().GetInt("top")

	p, err := buildPipeline(cmd, dryRun)
	if err != nil {
		return err
	}
	files, err := p.expandInputs(args)
	if err != nil {
		return err
	}
	log := getLogger()

	var led *ledger.Ledger
	if !dryRun && p.cfg.Ledger != "" {
		led, err = ledger.Open(p.cfg.Ledger)
		if err != nil {
			return err
		}
		defer led.Close()
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("run started",
		zap.Int("files", len(files)),
		zap.Int("workers", p.cfg.Workers),
		zap.String("rules", p.rules.String()),
		zap.String("prefix", p.cfg.Prefix),
		zap.Bool("dry_run", dryRun))

	pool := sorter.Pool{
		Sorter:  p.sorter,
		Workers: p.cfg.Workers,
		Logger:  log,
	}
	if led != nil {
		pool.OnResult = func(res sorter.Result) {
			if err := led.Record(context.Background(), runID, res, res.Err); err != nil {
				log.Warn("failed to record run", zap.String("file", res.Path), zap.Error(err))
			}
		}
	}

	results, runErr := pool.Run(ctx, files)
	stats := analyzer.New().ComputeStats(results, topN)

	log.Info("run finished",
		zap.Int("files", stats.Files),
		zap.Int("failed", stats.Failed),
		zap.Int("lines", stats.TotalLines),
		zap.Int("good", stats.Good),
		zap.Int("bad", stats.Bad))

	if err := newWriter(cmd).WriteStats(stats); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%d of %d files failed: %w", stats.Failed, stats.Files, runErr)
	}
	return nil
}
