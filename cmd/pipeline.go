package cmd

import (
	"context"
	"fmt"

	"github.com/bimmerbailey/credsift/internal/config"
	"github.com/bimmerbailey/credsift/internal/hashcat"
	"github.com/bimmerbailey/credsift/internal/output"
	"github.com/bimmerbailey/credsift/internal/parser"
	"github.com/bimmerbailey/credsift/internal/rules"
	"github.com/bimmerbailey/credsift/internal/sorter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// addRuleFlags registers the flags that assemble a custom rule set. Setting
// any index flag (or --split-min) replaces the rules file and the default set.
func addRuleFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.Int("split-min", 0, "minimum field count")
	pf.Int("split-max", rules.DefaultSplitMax, "maximum field count, requires --split-min (default unbounded)")
	pf.IntSlice("len-index", nil, "field indices to bound by length")
	pf.IntSlice("len-min", []int{5}, "minimum length per --len-index entry")
	pf.IntSlice("len-max", []int{40}, "maximum length per --len-index entry")
	pf.IntSlice("lower-index", nil, "field indices to lowercase")
	pf.IntSlice("email-index", nil, "field indices that must be email addresses")
	pf.IntSlice("hash-index", nil, "field indices to check for hashes")
}

// ruleBuilder reads the rule flags of cmd. Flags the command does not have
// are treated as unset.
func ruleBuilder(cmd *cobra.Command) rules.Builder {
	fs := cmd.Flags()
	var b rules.Builder

	if f := fs.Lookup("split-min"); f != nil && f.Changed {
		v, _ := fs.GetInt("split-min")
		b.SplitMin = &v
	}
	if f := fs.Lookup("split-max"); f != nil && f.Changed {
		v, _ := fs.GetInt("split-max")
		b.SplitMax = &v
		if b.SplitMin == nil {
			getLogger().Warn("--split-max has no effect without --split-min", zap.Int("split_max", v))
		}
	}
	ints := func(name string) []int {
		if fs.Lookup(name) == nil {
			return nil
		}
		v, _ := fs.GetIntSlice(name)
		return v
	}
	b.LenIndex = ints("len-index")
	b.LenMin = ints("len-min")
	b.LenMax = ints("len-max")
	b.LowerIndex = ints("lower-index")
	b.EmailIndex = ints("email-index")
	b.HashIndex = ints("hash-index")
	return b
}

// pipeline is everything a command needs to classify files.
type pipeline struct {
	cfg      config.Config
	rules    rules.Set
	patterns []hashcat.Definition // custom patterns from the rules file
	catalog  *hashcat.Catalog
	sorter   *sorter.Sorter
}

// buildPipeline resolves configuration, the rule set and the hash catalog.
// Rule flags win over the rules file, which wins over the default set. Every
// configuration error surfaces here, before any input is read.
func buildPipeline(cmd *cobra.Command, dryRun bool) (*pipeline, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	rt := &pipeline{cfg: cfg}

	var fromFile rules.Set
	if cfg.RulesFile != "" {
		f, err := rules.LoadFile(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("invalid rules file: %w", err)
		}
		fromFile = f.Rules
		rt.patterns = f.HashPatterns
	}

	switch b := ruleBuilder(cmd); {
	case !b.Empty():
		rt.rules, err = b.Build()
		if err != nil {
			return nil, fmt.Errorf("invalid rule flags: %w", err)
		}
	case fromFile.Len() > 0:
		rt.rules = fromFile
	default:
		rt.rules = rules.Default()
	}

	rt.catalog, err = hashcat.New(cfg.HashTypes, rt.patterns...)
	if err != nil {
		return nil, fmt.Errorf("invalid hash catalog: %w", err)
	}

	tok, err := parser.NewTokenizer(cfg.Delimiters)
	if err != nil {
		return nil, fmt.Errorf("invalid delimiters: %w", err)
	}
	policy, err := parser.ParseDecodePolicy(cfg.InvalidUTF8)
	if err != nil {
		return nil, err
	}

	rt.sorter = sorter.New(sorter.Options{
		Rules:                  rt.rules,
		Catalog:                rt.catalog,
		Tokenizer:              tok,
		Prefix:                 cfg.Prefix,
		Extensions:             cfg.Extensions,
		OutputDir:              cfg.OutputDir,
		DecodePolicy:           policy,
		RejectUnrecognizedHash: cfg.RejectUnrecognizedHash,
		DryRun:                 dryRun,
	}, getLogger())

	getLogger().Debug("pipeline ready",
		zap.String("rules", rt.rules.String()),
		zap.Int("hash_patterns", rt.catalog.Len()),
		zap.String("prefix", cfg.Prefix),
		zap.Strings("delimiters", cfg.Delimiters),
		zap.Bool("dry_run", dryRun))
	return rt, nil
}

// isSink reports whether path is an output of an earlier run.
func (rt *pipeline) isSink(path string) bool {
	if config.IsSinkName(path, rt.cfg.Prefix) {
		getLogger().Debug("skipping output file", zap.String("file", path))
		return true
	}
	return false
}

// expandInputs turns arguments into input files, leaving out earlier output.
func (rt *pipeline) expandInputs(args []string) ([]string, error) {
	files, err := config.ExpandGlobs(args, rt.isSink)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files (all matches are output files of a previous run)")
	}
	return files, nil
}

// newWriter creates an output writer for cmd honoring --format and --no-color.
func newWriter(cmd *cobra.Command) *output.Writer {
	w := output.New(cmd.OutOrStdout(), output.ParseFormat(viper.GetString("format")))
	mode := output.ColorAuto
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		mode = output.ColorNever
	}
	w.SetColor(mode)
	return w
}

// commandContext returns the context of cmd, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
