// Package sorter drives input files through tokenizing, classification and
// bucket routing.
package sorter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bimmerbailey/credsift/internal/bucket"
	"github.com/bimmerbailey/credsift/internal/classify"
	"github.com/bimmerbailey/credsift/internal/config"
	"github.com/bimmerbailey/credsift/internal/hashcat"
	"github.com/bimmerbailey/credsift/internal/parser"
	"github.com/bimmerbailey/credsift/internal/rules"
	"go.uber.org/zap"
)

var (
	// ErrNotRegular is returned for inputs that are not regular files.
	ErrNotRegular = errors.New("not a regular file")
	// ErrExtension is returned for inputs whose extension is not accepted.
	ErrExtension = errors.New("extension not accepted")
)

// Options configures a Sorter.
type Options struct {
	Rules     rules.Set
	Catalog   *hashcat.Catalog // nil means every built-in pattern
	Tokenizer *parser.Tokenizer

	Prefix     string
	Extensions []string // empty accepts any extension
	OutputDir  string   // empty writes next to each input

	DecodePolicy           parser.DecodePolicy
	RejectUnrecognizedHash bool

	// DryRun classifies and counts without creating any output file.
	DryRun bool
}

// Result summarizes one file run.
type Result struct {
	Path    string         `json:"path"`
	Lines   int            `json:"lines"`
	Dropped int            `json:"dropped"`
	Buckets map[string]int `json:"buckets"`
	Elapsed time.Duration  `json:"elapsed"`
	Err     error          `json:"-"`
}

// Good returns the number of records in the good bucket.
func (r Result) Good() int {
	return r.Buckets[classify.Good.Label()]
}

// Bad returns the number of records across all bad buckets.
func (r Result) Bad() int {
	n := 0
	for label, c := range r.Buckets {
		if label != classify.Good.Label() {
			n += c
		}
	}
	return n
}

// Sorter runs files through the pipeline. It holds only read-only state and
// may be shared between goroutines; every run gets its own classifier and
// router.
type Sorter struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Sorter. A nil logger discards log output.
func New(opts Options, logger *zap.Logger) *Sorter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = hashcat.MustNew(nil)
	}
	if opts.Tokenizer == nil {
		tok, _ := parser.NewTokenizer(config.DefaultDelimiters())
		opts.Tokenizer = tok
	}
	if opts.Prefix == "" {
		opts.Prefix = config.DefaultPrefix
	}
	return &Sorter{opts: opts, logger: logger}
}

// Options returns the effective options.
func (s *Sorter) Options() Options {
	return s.opts
}

// Check validates path as an input without reading it.
func (s *Sorter) Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if len(s.opts.Extensions) > 0 && !config.HasExtension(path, s.opts.Extensions) {
		return fmt.Errorf("%s: %w", path, ErrExtension)
	}
	return nil
}

// SortFile sorts path into sink files named after its stem.
func (s *Sorter) SortFile(path string) (Result, error) {
	if err := s.Check(path); err != nil {
		return Result{Path: path, Err: err}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Path: path, Err: err}, err
	}
	defer f.Close()

	dir := s.opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]

	res, err := s.SortReader(f, path, dir, stem)
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		res.Err = err
	}
	return res, err
}

// SortReader sorts the lines of r into sinks under dir named after stem.
// name identifies the stream in results and log output.
func (s *Sorter) SortReader(r io.Reader, name, dir, stem string) (Result, error) {
	start := time.Now()
	res := Result{Path: name}

	opener := bucket.AppendOpener
	if s.opts.DryRun {
		opener = bucket.DiscardOpener
	}
	router, err := bucket.New(dir, stem, s.opts.Prefix, bucket.WithOpener(opener))
	if err != nil {
		res.Err = err
		return res, err
	}

	stats, err := s.ClassifyReader(r, name, func(rec parser.Record, o classify.Outcome) error {
		return router.Route(o, rec.Line)
	})
	res.Lines = stats.Lines
	res.Dropped = stats.Dropped
	res.Buckets = make(map[string]int)
	for o, n := range router.Counts() {
		res.Buckets[o.Label()] = n
	}
	if cerr := router.Close(); err == nil {
		err = cerr
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Err = err
		return res, err
	}

	s.logger.Info("sorted file",
		zap.String("file", name),
		zap.Int("lines", res.Lines),
		zap.Int("dropped", res.Dropped),
		zap.Int("good", res.Good()),
		zap.Int("bad", res.Bad()),
		zap.Int("buckets", len(res.Buckets)),
		zap.Duration("elapsed", res.Elapsed),
		zap.Bool("dry_run", s.opts.DryRun))
	return res, nil
}

// ClassifyFile classifies every record of path and hands it to fn with its
// outcome. Nothing is written.
func (s *Sorter) ClassifyFile(path string, fn func(parser.Record, classify.Outcome) error) (parser.Stats, error) {
	if err := s.Check(path); err != nil {
		return parser.Stats{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return parser.Stats{}, err
	}
	defer f.Close()

	stats, err := s.ClassifyReader(f, path, fn)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", path, err)
	}
	return stats, nil
}

// ClassifyReader classifies every record of r in order and hands it to fn.
// The record passed to fn carries any in-place rewrites made by the rules.
func (s *Sorter) ClassifyReader(r io.Reader, name string, fn func(parser.Record, classify.Outcome) error) (parser.Stats, error) {
	c := classify.New(s.opts.Rules, s.opts.Catalog,
		classify.WithRejectUnrecognized(s.opts.RejectUnrecognizedHash))
	p := parser.New(s.opts.Tokenizer,
		parser.WithDecodePolicy(s.opts.DecodePolicy),
		parser.WithLogger(s.logger))

	return p.ParseStream(r, name, func(rec parser.Record) error {
		o := c.Classify(&rec)
		return fn(rec, o)
	})
}
