// Package config provides configuration types and helpers for credsift.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Defaults shared by the CLI and the packages that fall back to them.
const (
	DefaultPrefix = "result"
	DefaultSettle = 2 * time.Second
)

// DefaultDelimiters is the tokenizer preference list used when none is configured.
func DefaultDelimiters() []string {
	return []string{":", ";"}
}

// DefaultExtensions lists the input extensions accepted by default.
func DefaultExtensions() []string {
	return []string{".txt"}
}

// Config holds the application-wide configuration.
type Config struct {
	Format                 string      `mapstructure:"format"`
	Verbose                bool        `mapstructure:"verbose"`
	Prefix                 string      `mapstructure:"prefix"`
	Delimiters             []string    `mapstructure:"delimiters"`
	Extensions             []string    `mapstructure:"extensions"`
	OutputDir              string      `mapstructure:"output_dir"` // empty writes next to each input
	HashTypes              []string    `mapstructure:"hash_types"`
	RejectUnrecognizedHash bool        `mapstructure:"reject_unrecognized_hash"`
	InvalidUTF8            string      `mapstructure:"invalid_utf8"` // "replace" or "drop"
	Workers                int         `mapstructure:"workers"`
	RulesFile              string      `mapstructure:"rules_file"`
	Ledger                 string      `mapstructure:"ledger"` // SQLite path, empty disables
	Watch                  WatchConfig `mapstructure:"watch"`
}

// WatchConfig holds settings for the directory watcher.
type WatchConfig struct {
	// Settle is how long a file must be quiet before it is sorted, e.g. "2s".
	Settle string `mapstructure:"settle"`
}

// Normalize fills zero values with defaults and validates enumerations.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.Prefix) == "" {
		c.Prefix = DefaultPrefix
	}
	if strings.ContainsAny(c.Prefix, `/\`) {
		return fmt.Errorf("prefix %q must not contain a path separator", c.Prefix)
	}
	if len(c.Delimiters) == 0 {
		c.Delimiters = DefaultDelimiters()
	}
	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions()
	}
	for i, ext := range c.Extensions {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			c.Extensions[i] = "." + ext
		}
	}
	switch strings.ToLower(c.InvalidUTF8) {
	case "", "replace":
		c.InvalidUTF8 = "replace"
	case "drop":
		c.InvalidUTF8 = "drop"
	default:
		return fmt.Errorf("invalid invalid_utf8 value: %s (must be 'replace' or 'drop')", c.InvalidUTF8)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return nil
}

// SettleDuration parses Watch.Settle, falling back to DefaultSettle.
func (c *Config) SettleDuration() (time.Duration, error) {
	if strings.TrimSpace(c.Watch.Settle) == "" {
		return DefaultSettle, nil
	}
	d, err := ParseDuration(c.Watch.Settle)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("settle duration must not be negative")
	}
	return d, nil
}

// HasExtension reports whether path ends in one of exts (case-insensitive).
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// IsSinkName reports whether the base name of path looks like an output
// written by a previous run with the given prefix. Such files are never
// treated as input.
func IsSinkName(path, prefix string) bool {
	base := filepath.Base(path)
	marker := "_" + prefix + "_"
	if good := marker + "good.txt"; strings.HasSuffix(base, good) && len(base) > len(good) {
		return true
	}
	idx := strings.Index(base, marker)
	if idx <= 0 {
		return false
	}
	return strings.HasSuffix(base[idx+len(marker):], "_bad.txt")
}
