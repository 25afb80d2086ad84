package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bimmerbailey/credsift/internal/config"
	"github.com/bimmerbailey/credsift/internal/ledger"
	"github.com/bimmerbailey/credsift/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <dir>",
	Short: "Sort dump files as they land in a directory",
	Long: `Watch a directory and sort every new or changed input file once it
has been quiet for the settle period. Output files are written with the same
names as sort uses and are never picked up as input.

Examples:
  credsift watch ./incoming
  credsift watch --settle 10s --output-dir ./sorted ./incoming`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("settle", config.DefaultSettle.String(), "quiet period before a file is sorted (e.g. 500ms, 5s, 1m)")

	_ = viper.BindPFlag("watch.settle", watchCmd.Flags().Lookup("settle"))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	p, err := buildPipeline(cmd, false)
	if err != nil {
		return err
	}
	settle, err := p.cfg.SettleDuration()
	if err != nil {
		return fmt.Errorf("invalid settle duration: %w", err)
	}
	log := getLogger()

	var led *ledger.Ledger
	if p.cfg.Ledger != "" {
		led, err = ledger.Open(p.cfg.Ledger)
		if err != nil {
			return err
		}
		defer led.Close()
	}

	w := watch.New(watch.Options{
		Dir:    dir,
		Settle: settle,
		Logger: log,
		Match: func(path string) bool {
			return config.HasExtension(path, p.cfg.Extensions) && !p.isSink(path)
		},
		Handle: func(path string) error {
			res, err := p.sorter.SortFile(path)
			if led != nil {
				if lerr := led.Record(context.Background(), runID, res, err); lerr != nil {
					log.Warn("failed to record run", zap.String("file", path), zap.Error(lerr))
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lines, %d good, %d bad (%s)\n",
				path, res.Lines, res.Good(), res.Bad(), res.Elapsed.Round(time.Millisecond))
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx)
}
