package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bimmerbailey/credsift/internal/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	logger  *zap.Logger
	runID   string
)

var rootCmd = &cobra.Command{
	Use:   "credsift",
	Short: "Sort credential dumps into good and bad buckets",
	Long: `Credsift splits credential dump files into a "good" file of clean
email:password records and one "bad" file per rejection reason.

Each line is tokenized on the first delimiter it contains and run through an
ordered rule set: field count, field lengths, lowercasing, email shape and
hash detection. The first failing rule decides the bucket.

Examples:
  credsift sort dumps/*.txt
  credsift stats --format table leak.txt
  credsift search -p '^\[MD5\]' leak.txt
  credsift watch --settle 5s ./incoming`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(viper.GetBool("verbose"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.credsift.yaml)")
	pf.StringP("format", "f", "text", "output format (text, json, table)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.Bool("no-color", false, "disable colored output")

	pf.String("prefix", config.DefaultPrefix, "output file name prefix")
	pf.StringSlice("delimiters", config.DefaultDelimiters(), "field delimiters in preference order")
	pf.StringSlice("extensions", config.DefaultExtensions(), "accepted input file extensions")
	pf.StringP("output-dir", "o", "", "directory for output files (default: next to each input)")
	pf.StringSlice("hash-types", nil, "restrict hash detection to these types (see 'credsift catalog')")
	pf.Bool("reject-unrecognized-hash", false, "reject values whose length has hash patterns but match none")
	pf.String("invalid-utf8", "replace", "handling of lines with invalid UTF-8 (replace, drop)")
	pf.IntP("workers", "w", 1, "number of files to sort in parallel")
	pf.String("rules", "", "YAML rules file")
	pf.String("ledger", "", "SQLite file to record run history in")

	addRuleFlags(rootCmd)

	for key, flag := range map[string]string{
		"format":                   "format",
		"verbose":                  "verbose",
		"prefix":                   "prefix",
		"delimiters":               "delimiters",
		"extensions":               "extensions",
		"output_dir":               "output-dir",
		"hash_types":               "hash-types",
		"reject_unrecognized_hash": "reject-unrecognized-hash",
		"invalid_utf8":             "invalid-utf8",
		"workers":                  "workers",
		"rules_file":               "rules",
		"ledger":                   "ledger",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".credsift")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CREDSIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func setDefaults() {
	viper.SetDefault("format", "text")
	viper.SetDefault("verbose", false)
	viper.SetDefault("prefix", config.DefaultPrefix)
	viper.SetDefault("delimiters", config.DefaultDelimiters())
	viper.SetDefault("extensions", config.DefaultExtensions())
	viper.SetDefault("invalid_utf8", "replace")
	viper.SetDefault("workers", 1)
	viper.SetDefault("watch.settle", config.DefaultSettle.String())
}

// setupLogger builds the process logger. Every entry carries the run id.
func setupLogger(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	runID = uuid.NewString()
	logger = l.With(zap.String("run_id", runID))
	return nil
}

// getLogger returns the process logger, or a no-op logger when commands run
// without the root pre-run hook.
func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig decodes and normalizes the merged viper configuration.
func loadConfig() (config.Config, error) {
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
